package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	testhelpers "datolab/autoseo/internal/providers"
	"datolab/autoseo/pkg/cli"
	"datolab/autoseo/pkg/content"
	"datolab/autoseo/pkg/limits/ratelimit"
	"datolab/autoseo/pkg/seo"
	"datolab/autoseo/pkg/telemetry/logging"
)

// execute runs the root command with args and returns its stdout. Flag
// variables are reset first because cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose, outputFormat = "", false, string(cli.FormatText)
	processFlags.provider, processFlags.limit, processFlags.noProgress = "", 0, false
	logsFlags.lines, logsFlags.level, logsFlags.source, logsFlags.search, logsFlags.page = 0, "", "", "", 1
	itemsFlags.content, itemsFlags.contentFile, itemsFlags.excerpt, itemsFlags.limit = "", "", "", 0
	serveFlags.listenAddress, serveFlags.noWatch = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

type testEnv struct {
	dir        string
	configPath string
	mock       *testhelpers.MockServer
}

// newTestEnv writes a configuration with sqlite stores under a temp
// directory and OpenAI pointed at a mock server.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()

	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "COHERE_API_KEY"} {
		t.Setenv(key, "")
	}

	mock := testhelpers.NewMockServer()
	t.Cleanup(mock.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`default_provider: openai
providers:
  openai:
    api_key: sk-test-key
    base_url: %s
    max_retries: 1
rate_limit_store:
  backend: sqlite
  sqlite_path: %s
content:
  backend: sqlite
  sqlite_path: %s
logging:
  file: %s
  console: false
%s`,
		mock.URL(),
		filepath.Join(dir, "ratelimits.db"),
		filepath.Join(dir, "content.db"),
		filepath.Join(dir, "logs", "autoseo.log"),
		extra,
	)

	path := filepath.Join(dir, "autoseo.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return &testEnv{dir: dir, configPath: path, mock: mock}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.configPath}, args...)...)
}

func (e *testEnv) addDraft(t *testing.T, title string) {
	t.Helper()
	out, err := e.run(t, "items", "add", "--title", title, "--content", "Trams, pastries and viewpoints.")
	if err != nil {
		t.Fatalf("items add error = %v", err)
	}
	if !strings.HasPrefix(out, "Added draft item") {
		t.Fatalf("items add output = %q", out)
	}
}

func (e *testEnv) openContent(t *testing.T) content.Store {
	t.Helper()
	store, err := content.NewSQLiteStore(content.SQLiteConfig{Path: filepath.Join(e.dir, "content.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func termNames(t *testing.T, store content.Store, id int64, tax content.Taxonomy) []string {
	t.Helper()
	terms, err := store.ItemTerms(context.Background(), id, tax)
	if err != nil {
		t.Fatalf("ItemTerms() error = %v", err)
	}
	names := make([]string, len(terms))
	for i, term := range terms {
		names[i] = term.Name
	}
	return names
}

func TestProcessCommand(t *testing.T) {
	env := newTestEnv(t, "")
	env.addDraft(t, "Ten days in Lisbon")

	env.mock.SetResponses("/chat/completions",
		testhelpers.OK(testhelpers.MockOpenAIResponse(`{"categories": ["Travel", "Food"]}`, "gpt-4o")),
		testhelpers.OK(testhelpers.MockOpenAIResponse("```json\n{\"tags\": [\"lisbon\", \"2024\", \"budget travel\"]}\n```", "gpt-4o")),
	)

	out, err := env.run(t, "process", "--no-progress", "--output", "json")
	if err != nil {
		t.Fatalf("process error = %v", err)
	}

	var report seo.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a report: %v (%q)", err, out)
	}
	if report.Provider != "openai" || report.Processed != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v, want one processed item from openai", report)
	}

	item := report.Items[0]
	if !reflect.DeepEqual(item.CategoriesAdded, []string{"Travel", "Food"}) {
		t.Errorf("categories added = %v, want [Travel Food]", item.CategoriesAdded)
	}
	if !reflect.DeepEqual(item.TagsAdded, []string{"lisbon", "budget travel"}) {
		t.Errorf("tags added = %v, want [lisbon budget travel]", item.TagsAdded)
	}
	if !reflect.DeepEqual(item.Rejected, []string{"2024"}) {
		t.Errorf("rejected = %v, want [2024]", item.Rejected)
	}
	if item.DefaultCategory != content.DefaultRemoved.String() {
		t.Errorf("default category = %q, want %q", item.DefaultCategory, content.DefaultRemoved)
	}
	if got := env.mock.GetRequestCount(); got != 2 {
		t.Errorf("provider requests = %d, want 2", got)
	}

	store := env.openContent(t)
	if got := termNames(t, store, item.ItemID, content.TaxonomyCategory); !reflect.DeepEqual(got, []string{"Food", "Travel"}) &&
		!reflect.DeepEqual(got, []string{"Travel", "Food"}) {
		t.Errorf("stored categories = %v, want Travel and Food only", got)
	}
	if got := termNames(t, store, item.ItemID, content.TaxonomyTag); len(got) != 2 {
		t.Errorf("stored tags = %v, want 2", got)
	}

	logs, err := env.run(t, "logs", "show")
	if err != nil {
		t.Fatalf("logs show error = %v", err)
	}
	for _, want := range []string{
		"Generating up to 3 categories",
		"Stripped Markdown code blocks from response",
		"Invalid tag generated (numeric or irrelevant): 2024",
		"Removed 'uncategorized' category from item",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("activity log missing %q", want)
		}
	}
	if strings.Contains(logs, "sk-test-key") {
		t.Error("activity log contains the API key")
	}
}

func TestProcessCommand_PartialFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.addDraft(t, "Ten days in Lisbon")

	env.mock.SetResponse("/chat/completions",
		testhelpers.OK(testhelpers.MockOpenAIResponse("Sorry, I cannot help with that.", "gpt-4o")))

	_, err := env.run(t, "process", "--no-progress")
	if err == nil {
		t.Fatal("process error = nil, want a partial failure")
	}
	if code := cli.ExitCode(err); code != cli.ExitPartial {
		t.Errorf("ExitCode() = %d, want %d (err %v)", code, cli.ExitPartial, err)
	}
}

func TestProcessCommand_UnknownProvider(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.run(t, "process", "--no-progress", "--provider", "cohere")
	if err == nil || !strings.Contains(err.Error(), "cohere") {
		t.Errorf("process error = %v, want cohere to be unavailable", err)
	}
}

func TestProcessCommand_NoDrafts(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "process", "--no-progress")
	if err != nil {
		t.Fatalf("process error = %v", err)
	}
	if !strings.Contains(out, "0 processed, 0 failed") {
		t.Errorf("output = %q, want an empty summary", out)
	}
	if env.mock.GetRequestCount() != 0 {
		t.Errorf("provider requests = %d, want 0", env.mock.GetRequestCount())
	}
}

func TestRatelimitCommands(t *testing.T) {
	env := newTestEnv(t, "rate_limits:\n  cohere: 12\n")

	out, err := env.run(t, "ratelimit", "show", "--output", "json")
	if err != nil {
		t.Fatalf("ratelimit show error = %v", err)
	}
	var statuses []ratelimit.Status
	if err := json.Unmarshal([]byte(out), &statuses); err != nil {
		t.Fatalf("invalid output: %v (%q)", err, out)
	}
	limits := make(map[string]ratelimit.Status)
	for _, s := range statuses {
		limits[s.Provider] = s
	}
	if s := limits["cohere"]; s.Limit != 12 || s.Source != ratelimit.SourceConfig {
		t.Errorf("cohere = %+v, want 12 from config", s)
	}
	if s := limits["openai"]; s.Limit != 60 || s.Source != ratelimit.SourceDefault {
		t.Errorf("openai = %+v, want 60 from default", s)
	}

	out, err = env.run(t, "ratelimit", "set", "OpenAI", "90")
	if err != nil {
		t.Fatalf("ratelimit set error = %v", err)
	}
	if !strings.Contains(out, "openai set to 90") {
		t.Errorf("output = %q", out)
	}

	// A new process sees the persisted ceiling.
	out, err = env.run(t, "ratelimit", "show", "openai", "--output", "csv")
	if err != nil {
		t.Fatalf("ratelimit show error = %v", err)
	}
	if !strings.Contains(out, "openai,90,persisted,0,-") {
		t.Errorf("csv output = %q, want the persisted ceiling", out)
	}

	if _, err := env.run(t, "ratelimit", "set", "openai", "0"); err == nil {
		t.Error("ratelimit set 0 error = nil, want rejection")
	}
	if _, err := env.run(t, "ratelimit", "set", "openai", "many"); err == nil {
		t.Error("ratelimit set many error = nil, want a parse error")
	}

	if _, err := env.run(t, "ratelimit", "reset", "openai"); err != nil {
		t.Fatalf("ratelimit reset error = %v", err)
	}

	logs, err := env.run(t, "logs", "query", "--search", "rate limit", "--output", "json")
	if err != nil {
		t.Fatalf("logs query error = %v", err)
	}
	var page logging.Page
	if err := json.Unmarshal([]byte(logs), &page); err != nil {
		t.Fatalf("invalid page: %v (%q)", err, logs)
	}
	if page.Total == 0 {
		t.Error("no rate limit entries in the activity log")
	}
}

func TestLogsCommands(t *testing.T) {
	env := newTestEnv(t, "")
	env.addDraft(t, "Ten days in Lisbon")

	if _, err := env.run(t, "ratelimit", "set", "anthropic", "10"); err != nil {
		t.Fatalf("ratelimit set error = %v", err)
	}

	out, err := env.run(t, "logs", "query", "--level", "info")
	if err != nil {
		t.Fatalf("logs query error = %v", err)
	}
	if !strings.Contains(out, "TIME") || !strings.Contains(out, "Page 1 of 1") {
		t.Errorf("query output = %q, want a table and page footer", out)
	}

	if _, err := env.run(t, "logs", "clear"); err != nil {
		t.Fatalf("logs clear error = %v", err)
	}
	out, err = env.run(t, "logs", "show", "--lines", "10")
	if err != nil {
		t.Fatalf("logs show error = %v", err)
	}
	if !strings.Contains(out, "Logs cleared") || strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Errorf("log after clear = %q, want only the clear entry", out)
	}

	out, err = env.run(t, "logs", "rotate")
	if err != nil {
		t.Fatalf("logs rotate error = %v", err)
	}
	if !strings.Contains(out, "nothing to rotate") {
		t.Errorf("rotate output = %q", out)
	}

	if _, err := env.run(t, "logs", "show", "--lines", "-1"); err == nil {
		t.Error("logs show --lines -1 error = nil, want rejection")
	}
}

func TestItemsCommands(t *testing.T) {
	env := newTestEnv(t, "")
	env.addDraft(t, "Ten days in Lisbon")

	out, err := env.run(t, "items", "list", "--output", "json")
	if err != nil {
		t.Fatalf("items list error = %v", err)
	}
	var rows []itemRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("invalid output: %v (%q)", err, out)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0].Categories, []string{content.DefaultCategoryName}) {
		t.Errorf("categories = %v, want the default category", rows[0].Categories)
	}

	out, err = env.run(t, "items", "show", fmt.Sprint(rows[0].ID))
	if err != nil {
		t.Fatalf("items show error = %v", err)
	}
	if !strings.Contains(out, "Ten days in Lisbon") {
		t.Errorf("show output = %q", out)
	}

	if _, err := env.run(t, "items", "show", "999"); err == nil {
		t.Error("items show 999 error = nil, want not found")
	}
}

func TestItemsRelatedCommand(t *testing.T) {
	env := newTestEnv(t, "")
	store := env.openContent(t)
	ctx := context.Background()

	post, err := store.AddItem(ctx, content.NewItem{Title: "Ten days in Lisbon", Categories: []string{"Travel"}, Tags: []string{"Lisbon", "Food"}})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	both, _ := store.AddItem(ctx, content.NewItem{Title: "Eating in Porto", Categories: []string{"Travel"}, Tags: []string{"Food"}})
	tagOnly, _ := store.AddItem(ctx, content.NewItem{Title: "Lisbon on a budget", Tags: []string{"Lisbon"}})
	_, _ = store.AddItem(ctx, content.NewItem{Title: "Learning Rust", Tags: []string{"Rust"}})

	out, err := env.run(t, "items", "related", fmt.Sprint(post.ID), "--output", "json")
	if err != nil {
		t.Fatalf("items related error = %v", err)
	}
	var related []content.RelatedItem
	if err := json.Unmarshal([]byte(out), &related); err != nil {
		t.Fatalf("invalid output: %v (%q)", err, out)
	}
	if len(related) != 2 {
		t.Fatalf("related = %+v, want 2 items", related)
	}
	if related[0].Item.ID != both.ID || related[0].Shared != 2 {
		t.Errorf("related[0] = %+v, want item %d sharing 2", related[0], both.ID)
	}
	if related[1].Item.ID != tagOnly.ID || related[1].Shared != 1 {
		t.Errorf("related[1] = %+v, want item %d sharing 1", related[1], tagOnly.ID)
	}

	out, err = env.run(t, "items", "related", fmt.Sprint(post.ID), "--limit", "1")
	if err != nil {
		t.Fatalf("items related --limit error = %v", err)
	}
	if !strings.Contains(out, "Eating in Porto") || strings.Contains(out, "Lisbon on a budget") {
		t.Errorf("limited output = %q", out)
	}

	if _, err := env.run(t, "items", "related", "999"); err == nil {
		t.Error("items related 999 error = nil, want not found")
	}
	if _, err := env.run(t, "items", "related", fmt.Sprint(post.ID), "--limit", "-1"); err == nil {
		t.Error("items related --limit -1 error = nil, want rejection")
	}
}

func TestValidateCommand(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "validate")
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, "OpenAI") {
		t.Errorf("output = %q", out)
	}

	bad := newTestEnv(t, "seo:\n  max_tags: -1\n")
	_, err = bad.run(t, "validate")
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("ExitCode() = %d, want %d (err %v)", code, cli.ExitConfig, err)
	}

	_, err = execute(t, "--config", filepath.Join(env.dir, "missing.yaml"), "validate")
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("ExitCode() for a missing file = %d, want %d", code, cli.ExitConfig)
	}
}
