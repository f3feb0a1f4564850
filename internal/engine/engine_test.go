package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylusguard/internal/config"
	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/model"
)

const vulnerableStaking = `sol_storage! {
    #[entrypoint]
    pub struct Staking {
        address owner;
        uint256 total_staked;
        mapping(address => uint256) stakes;
    }
}

#[external]
impl Staking {
    pub fn stake(&mut self) {
        let amount = msg::value();
        let staker = msg::sender();
        let current = self.stakes.get(&staker);
        self.stakes.insert(&staker, current + amount);
        self.total_staked += amount;
    }

    pub fn withdraw(&mut self, amount: U256) {
        let staker = msg::sender();
        let staked = self.stakes.get(&staker);
        require!(staked >= amount, "insufficient stake");
        msg::send(staker, amount);
        self.stakes.insert(&staker, staked - amount);
        self.total_staked -= amount;
    }
}
`

func newEngine(t *testing.T, mutate ...func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	eng, err := New(cfg)
	require.NoError(t, err)
	return eng
}

func TestVulnerableStakingIsCritical(t *testing.T) {
	eng := newEngine(t)
	rep, err := eng.AnalyzeSource(context.Background(), "staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)

	var reentrancy *model.Finding
	for i, f := range rep.Findings {
		if f.RuleID == "STY-SEC-REENTRANCY" {
			reentrancy = &rep.Findings[i]
			break
		}
	}
	require.NotNil(t, reentrancy, "The withdraw call-then-write pattern must be reported")
	assert.Equal(t, model.SeverityCritical, reentrancy.Severity)
	assert.Equal(t, "withdraw", reentrancy.Function)
	assert.Equal(t, model.RiskCritical, rep.Risk)
	assert.Less(t, rep.Scores.Security, 100.0)
}

func TestReportIsDeterministic(t *testing.T) {
	eng := newEngine(t)
	first, err := eng.AnalyzeSource(context.Background(), "staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)
	second, err := eng.AnalyzeSource(context.Background(), "staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)
	assert.Equal(t, first, second, "Same source and config must produce identical reports")
}

func TestFindingsSortedBySeverity(t *testing.T) {
	eng := newEngine(t)
	rep, err := eng.AnalyzeSource(context.Background(), "staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)

	require.NotEmpty(t, rep.Findings)
	for i := 1; i < len(rep.Findings); i++ {
		assert.GreaterOrEqual(t,
			rep.Findings[i-1].Severity.Rank(), rep.Findings[i].Severity.Rank(),
			"Findings must come most severe first")
	}
}

func TestSeverityFloorFiltersReport(t *testing.T) {
	floored := newEngine(t, func(c *config.Config) { c.SeverityFloor = model.SeverityHigh })
	rep, err := floored.AnalyzeSource(context.Background(), "staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)

	require.NotEmpty(t, rep.Findings)
	for _, f := range rep.Findings {
		assert.True(t, f.Severity.GTE(model.SeverityHigh),
			"Nothing below the floor may appear, finding %s is %s", f.RuleID, f.Severity)
	}
}

func TestCategoryFilterDisablesDetectors(t *testing.T) {
	qualityOnly := newEngine(t, func(c *config.Config) {
		c.EnabledCategories = []model.Category{model.CategoryQuality}
	})
	rep, err := qualityOnly.AnalyzeSource(context.Background(), "staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)

	for _, f := range rep.Findings {
		assert.Equal(t, model.CategoryQuality, f.Category)
	}
	assert.Equal(t, 100.0, rep.Scores.Security, "Disabled categories keep a clean score")
}

func TestPartialParseStillAnalyzes(t *testing.T) {
	source := `impl Broken {
    pub fn (&mut self) {
        self.a = 1;
    }

    pub fn leak(&mut self) {
        msg::send(target, amount);
        self.funds = 0;
    }
}`
	eng := newEngine(t)
	rep, err := eng.AnalyzeSource(context.Background(), "broken.rs", []byte(source))
	require.NoError(t, err, "A recoverable parse failure must not abort the analysis")

	var parseDiags int
	for _, d := range rep.Diagnostics {
		if d.Kind == "parse" {
			parseDiags++
		}
	}
	assert.Positive(t, parseDiags, "The skipped region must surface as a diagnostic")

	found := false
	for _, f := range rep.Findings {
		if f.RuleID == "STY-SEC-REENTRANCY" && f.Function == "leak" {
			found = true
		}
	}
	assert.True(t, found, "Findings from the surviving function are still produced")
}

func TestZeroFunctionContract(t *testing.T) {
	source := `sol_storage! {
    #[entrypoint]
    pub struct Registry {
        address owner;
    }
}`
	eng := newEngine(t)
	rep, err := eng.AnalyzeSource(context.Background(), "registry.rs", []byte(source))
	require.NoError(t, err, "A contract with storage but no functions is a valid boundary case")

	assert.Equal(t, "Registry", rep.Contract)
	assert.Empty(t, rep.Findings)
	assert.Equal(t, model.RiskMinimal, rep.Risk)
	assert.Equal(t, model.Scores{}, rep.Scores, "No functions means zero aggregate scores")
	assert.Equal(t, uint64(0), rep.Cost.TotalUnits)
	assert.Equal(t, 0.0, rep.Quality.Score)
}

func TestUnparseableSourceFails(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.AnalyzeSource(context.Background(), "junk.rs", []byte(`use nothing::here;`))
	require.Error(t, err)
	var parseErr *apperrors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestInvalidConfigFailsFast(t *testing.T) {
	cfg := config.Default()
	cfg.EnabledCategories = []model.Category{"styling"}
	_, err := New(cfg)
	require.Error(t, err)
	var cfgErr *apperrors.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr, "Invalid configuration rejects the whole run up front")
}

func TestAnalyzeProjectWalksSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staking.rs"), []byte(vulnerableStaking), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a contract"), 0o644))

	eng := newEngine(t)
	reports, err := eng.AnalyzeProject(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, reports, 1, "Only .rs files are analyzed")
	assert.Equal(t, "Staking", reports[0].Contract)
}

func TestAnalyzeProjectSurvivesUnbuildableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.rs"), []byte(`use nothing::here;`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staking.rs"), []byte(vulnerableStaking), 0o644))

	eng := newEngine(t)
	reports, err := eng.AnalyzeProject(context.Background(), dir)
	require.NoError(t, err, "One unbuildable file must not fail the project run")
	require.Len(t, reports, 2)

	assert.Equal(t, "junk", reports[0].Contract)
	assert.Empty(t, reports[0].Findings)
	require.Len(t, reports[0].Diagnostics, 1, "The parse failure travels as a diagnostic")
	assert.Equal(t, "parse", reports[0].Diagnostics[0].Kind)

	assert.Equal(t, "Staking", reports[1].Contract)
	assert.NotEmpty(t, reports[1].Findings, "The surviving contract still reports in full")
}

func TestModelCacheReuse(t *testing.T) {
	eng := newEngine(t)
	first, err := eng.BuildModel("staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)
	second, err := eng.BuildModel("staking.rs", []byte(vulnerableStaking))
	require.NoError(t, err)
	assert.Same(t, first, second, "Unchanged source reuses the cached model")
}
