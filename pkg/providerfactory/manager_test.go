package providerfactory

import (
	"errors"
	"reflect"
	"testing"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/providers"
)

func TestNewManager(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if manager.ProviderCount() != 0 {
		t.Errorf("expected 0 providers, got %d", manager.ProviderCount())
	}
}

func TestManager_AddAndGetProvider(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if err := manager.AddProvider("OpenAI", config.ProviderConfig{APIKey: "test-key"}); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}

	provider, err := manager.GetProvider("openai")
	if err != nil {
		t.Fatalf("GetProvider() failed: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected provider name openai, got %s", provider.Name())
	}

	// Replacing keeps a single entry.
	if err := manager.AddProvider("openai", config.ProviderConfig{APIKey: "other-key"}); err != nil {
		t.Fatalf("AddProvider() replace failed: %v", err)
	}
	if manager.ProviderCount() != 1 {
		t.Errorf("expected 1 provider after replace, got %d", manager.ProviderCount())
	}
}

func TestManager_AddProvider_Invalid(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if err := manager.AddProvider("openai", config.ProviderConfig{}); err == nil {
		t.Error("expected error for missing API key")
	}
	if manager.ProviderCount() != 0 {
		t.Errorf("expected 0 providers, got %d", manager.ProviderCount())
	}
}

func TestManager_GetProvider_NotFound(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if _, err := manager.GetProvider("non-existent"); err == nil {
		t.Fatal("expected error for non-existent provider, got nil")
	}
}

func TestManager_RemoveProvider(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if err := manager.AddProvider("cohere", config.ProviderConfig{APIKey: "k"}); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}
	if err := manager.RemoveProvider("Cohere"); err != nil {
		t.Fatalf("RemoveProvider() failed: %v", err)
	}
	if manager.ProviderCount() != 0 {
		t.Errorf("expected 0 providers, got %d", manager.ProviderCount())
	}
	if err := manager.RemoveProvider("cohere"); err == nil {
		t.Error("expected error removing a missing provider")
	}
}

func TestManager_LoadFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Providers[config.ProviderOpenAI] = withKey(cfg.Providers[config.ProviderOpenAI], "sk-1")
	cfg.Providers[config.ProviderCohere] = withKey(cfg.Providers[config.ProviderCohere], "co-1")

	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if err := manager.LoadFromConfig(cfg); err != nil {
		t.Fatalf("LoadFromConfig() failed: %v", err)
	}

	want := []string{"cohere", "openai"}
	if got := manager.GetProviderNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("GetProviderNames() = %v, want %v", got, want)
	}
}

func TestManager_LoadFromConfig_NoKeys(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if err := manager.LoadFromConfig(config.Default()); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("LoadFromConfig() error = %v, want ErrNoAPIKey", err)
	}
}

func TestManager_LoadFromConfig_Unsupported(t *testing.T) {
	cfg := config.Default()
	cfg.Providers["mistral"] = config.ProviderConfig{APIKey: "k"}

	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	if err := manager.LoadFromConfig(cfg); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestManager_GetHealthSummary(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	defer manager.Close()

	for _, name := range []string{"openai", "anthropic"} {
		if err := manager.AddProvider(name, config.ProviderConfig{APIKey: "k"}); err != nil {
			t.Fatalf("AddProvider(%s) failed: %v", name, err)
		}
	}

	summary := manager.GetHealthSummary()
	if summary.Total != 2 || summary.Healthy != 2 || summary.Unhealthy != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if _, ok := summary.Details["anthropic"]; !ok {
		t.Error("expected anthropic health details")
	}
}

func TestManager_Close(t *testing.T) {
	manager := NewManager(providers.Dependencies{})
	if err := manager.AddProvider("openai", config.ProviderConfig{APIKey: "k"}); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}
	if err := manager.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if manager.ProviderCount() != 0 {
		t.Errorf("expected 0 providers after Close, got %d", manager.ProviderCount())
	}
}

func withKey(pc config.ProviderConfig, key string) config.ProviderConfig {
	pc.APIKey = key
	return pc
}
