package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/claimlens/internal/model"
	"github.com/ppiankov/claimlens/internal/worker"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	if err := registerDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("registerDefaults failed: %v", err)
	}
	v.SetEnvPrefix("CLAIMLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Rules.TimelyFilingDays != 90 || cfg.Rules.SemanticRelevanceThreshold != 0.45 {
		t.Errorf("Unexpected rules: %+v", cfg.Rules)
	}
	if cfg.Cache.MemoryTTL != 30*time.Minute {
		t.Errorf("Expected 30m memory TTL, got %v", cfg.Cache.MemoryTTL)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Expected :8000, got %s", cfg.Server.Addr)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "llm:\n  provider: azure\n  model: gpt-4o-deploy\nrules:\n  high_value_threshold: 2500\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CLAIMLENS_RULES_TIMELY_FILING_DAYS", "120")
	t.Setenv("CLAIMLENS_LLM_API_KEY", "from-env")

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		t.Fatalf("MergeInConfig failed: %v", err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.LLM.Provider != "azure" || cfg.LLM.Model != "gpt-4o-deploy" {
		t.Errorf("Unexpected llm section: %+v", cfg.LLM)
	}
	if cfg.Rules.HighValueThreshold != 2500 {
		t.Errorf("Expected threshold 2500, got %v", cfg.Rules.HighValueThreshold)
	}
	if cfg.Rules.TimelyFilingDays != 120 {
		t.Errorf("Expected env override 120, got %d", cfg.Rules.TimelyFilingDays)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("Expected api key from env, got %q", cfg.LLM.APIKey)
	}
	// Untouched keys keep defaults
	if cfg.LLM.MaxTokens != 2000 {
		t.Errorf("Expected default max tokens, got %d", cfg.LLM.MaxTokens)
	}
}

func TestApplyEnvFallbacks(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "anthropic"
	applyEnvFallbacks(cfg)

	if cfg.LLM.APIKey != "sk-ant-test" {
		t.Errorf("Expected anthropic key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Embedding.BaseURL != "http://ollama:11434" {
		t.Errorf("Expected ollama base url for embeddings, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.LLM.BaseURL != "" {
		t.Errorf("Expected llm base url untouched, got %q", cfg.LLM.BaseURL)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(model.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("claim_id", "7").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected info message to be filtered")
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("Expected one JSON line, got %q: %v", out, err)
	}
	if line["message"] != "shown" || line["claim_id"] != "7" {
		t.Errorf("Unexpected log line: %v", line)
	}
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := initConfigFile(path); err != nil {
		t.Fatalf("initConfigFile failed: %v", err)
	}
	if err := initConfigFile(path); err == nil {
		t.Error("Expected error when the file already exists")
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		t.Fatalf("Generated config does not parse: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Cache.DiskTTL != 7*24*time.Hour {
		t.Errorf("Unexpected round-tripped config: %+v %+v", cfg.Storage, cfg.Cache)
	}
}

func TestRedact(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-1234567890"
	cfg.Embedding.APIKey = "short"

	out := redact(cfg)
	if out.LLM.APIKey != "sk-1****" || out.Embedding.APIKey != "****" {
		t.Errorf("Unexpected masks: %q %q", out.LLM.APIKey, out.Embedding.APIKey)
	}
	if cfg.LLM.APIKey != "sk-1234567890" {
		t.Error("redact must not modify the input")
	}
}

func TestPrintResult(t *testing.T) {
	r := &model.VerificationResult{
		Verdict:         model.VerdictDenied,
		ConfidenceScore: 100,
		Reasoning:       "Member ID is missing.",
		StepFailed:      model.StepEligibility,
		MissingCriteria: []string{"Member ID"},
	}
	r.SetFlags([]model.Flag{{Severity: model.SeverityDenied, Rule: model.RuleGender, Message: "mismatch"}})

	var buf bytes.Buffer
	printResult(&buf, 3, r)
	out := buf.String()

	for _, want := range []string{"Claim 3", "DENIED", "Eligibility Check", "Member ID", "DENIED: mismatch"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestPrintResult_Unparsed(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, 1, &model.VerificationResult{RawOutput: "not json"})

	if !strings.Contains(buf.String(), "UNPARSED") || !strings.Contains(buf.String(), "not json") {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}
}

func TestCollectIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	if err := os.WriteFile(path, []byte("5\n6\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := collectIDs([]string{"1", "2"}, path)
	if err != nil {
		t.Fatalf("collectIDs failed: %v", err)
	}
	if len(ids) != 4 || ids[0] != 1 || ids[3] != 6 {
		t.Errorf("Unexpected ids: %v", ids)
	}

	if _, err := collectIDs([]string{"x"}, ""); err == nil {
		t.Error("Expected error for invalid id")
	}
}

func TestWriteBatchLines(t *testing.T) {
	results := []*worker.VerifyResult{
		{ClaimID: 1, Result: &model.VerificationResult{Verdict: model.VerdictApproved, ConfidenceScore: 80}},
		{ClaimID: 2, Error: errors.New("claim not found: 2")},
	}

	var buf bytes.Buffer
	if err := writeBatchLines(&buf, results); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	var second batchLine
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second.ClaimID != 2 || second.Error == "" || second.Result != nil {
		t.Errorf("Unexpected line: %+v", second)
	}
}

func TestReadClaims_Extension(t *testing.T) {
	if _, err := readClaims("claims.xlsx"); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}
