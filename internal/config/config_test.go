package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: https://tenders.example.com\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://tenders.example.com", cfg.API.BaseURL)
	require.Equal(t, 10.0, cfg.API.RateLimit)
	require.Equal(t, 3, cfg.API.MaxRetries)
	require.Equal(t, "/api/Search/SearchTenders", cfg.API.Endpoints.Search)
	require.Equal(t, 1, cfg.Fetch.Pagination.StartPage)
	require.Equal(t, 50, cfg.Fetch.Pagination.PageSize)
	require.Equal(t, "PublicationDate", cfg.Fetch.Pagination.SortingColumn)
	require.Equal(t, "organizationProvince", cfg.Fetch.ProvinceParam)
	require.Equal(t, "tenders", cfg.Paths.TendersDir)
	require.True(t, cfg.Fetch.GetAll)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://tenders.example.com
  rate_limit: 5
  max_retries: 1
  endpoints:
    documents: /api/GetTenderDocuments
fetch:
  get_all: false
  filters:
    tenderType: construction
  provinces: [mazowieckie, pomorskie]
  pagination:
    page_size: 25
    end_page: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 5.0, cfg.API.RateLimit)
	require.Equal(t, 1, cfg.API.MaxRetries)
	require.Equal(t, "/api/GetTenderDocuments", cfg.API.Endpoints.Documents)
	require.False(t, cfg.Fetch.GetAll)
	require.Equal(t, map[string]string{"tenderType": "construction"}, cfg.Fetch.Filters,
		"filter parameter names keep their case")
	require.Equal(t, []string{"mazowieckie", "pomorskie"}, cfg.Fetch.Provinces)
	require.Equal(t, 25, cfg.Fetch.Pagination.PageSize)
	require.Equal(t, 4, cfg.Fetch.Pagination.EndPage)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("HARVESTER_API_BASE_URL", "https://env.example.com")
	t.Setenv("HARVESTER_API_API_KEY", "secret")
	t.Setenv("HARVESTER_FETCH_PROVINCES", "mazowieckie,pomorskie")
	t.Setenv("HARVESTER_TELEMETRY_LISTEN_ADDR", ":9091")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	require.Equal(t, "secret", cfg.API.APIKey)
	require.Equal(t, []string{"mazowieckie", "pomorskie"}, cfg.Fetch.Provinces)
	require.Equal(t, ":9091", cfg.Telemetry.ListenAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: https://file.example.com\n")
	t.Setenv("HARVESTER_API_BASE_URL", "https://env.example.com")
	t.Setenv("HARVESTER_API_RATE_LIMIT", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	require.Equal(t, 2.5, cfg.API.RateLimit)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	path := writeConfig(t, "fetch:\n  get_all: true\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "api.base_url")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_BadPagination(t *testing.T) {
	cfg := Config{}
	cfg.API.BaseURL = "https://x"
	cfg.API.RateLimit = 1
	cfg.API.TimeoutSeconds = 30
	cfg.Fetch.Pagination.StartPage = 0
	cfg.Fetch.Pagination.PageSize = 50
	cfg.Paths.DataDir = "data"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "start_page")
}

func TestDurationHelpers(t *testing.T) {
	cfg := PaginationConfig{DelaySeconds: 0.5, ProvincePauseSeconds: 2.5}
	require.Equal(t, int64(500), cfg.PageDelay().Milliseconds())
	require.Equal(t, int64(2500), cfg.ProvincePause().Milliseconds())
}
