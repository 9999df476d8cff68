package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "dados/Relatorio.txt", cfg.CurrentFile)
	assert.Equal(t, "dados/historico", cfg.HistoryDir)
	assert.Equal(t, "*.txt", cfg.HistoryGlob)
	assert.Equal(t, "pago ate o mes", cfg.TargetField)
	assert.Equal(t, "funcao descricao", cfg.GroupField)
	assert.Equal(t, 2, cfg.HorizonMonths)
	assert.Equal(t, 3, cfg.MinHistoryMonths)
	assert.Equal(t, ";", cfg.CSVSettings.Delimiter)
	assert.Equal(t, "ISO-8859-1", cfg.CSVSettings.Encoding)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
	assert.NoError(t, validateMainConfig(cfg))
}

func TestLoadMainConfig(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	path := writeConfig(t, `
history_dir: /data/hist
target_field: "Liquidado até o Mês"
horizon_months: 6
report_format: xlsx
csv_settings:
  header_rows: 2
database:
  enabled: true
  url: postgres://localhost/contas
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/hist", cfg.HistoryDir)
	assert.Equal(t, "Liquidado até o Mês", cfg.TargetField)
	assert.Equal(t, 6, cfg.HorizonMonths)
	assert.Equal(t, "xlsx", cfg.ReportFormat)
	assert.Equal(t, 3, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "postgres://localhost/contas", cfg.Database.URL)
	assert.Equal(t, 3, cfg.MinHistoryMonths)
}

func TestLoadMainConfigEnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://env/contas")
	t.Setenv(EnvPushgatewayURL, "http://pushgateway:9091")

	cfg, err := LoadMainConfig(writeConfig(t, "database:\n  enabled: true\n"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/contas", cfg.Database.URL)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushgatewayURL)
}

func TestLoadMainConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")

	_, err := LoadMainConfig(writeConfig(t, "horizon_months: -1\nreport_format: pdf\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "horizon_months")
	assert.Contains(t, err.Error(), "report_format")

	_, err = LoadMainConfig(writeConfig(t, "min_history_months: 2\n"))
	assert.ErrorContains(t, err, "min_history_months must be at least 3")

	_, err = LoadMainConfig(writeConfig(t, "database:\n  enabled: true\n"))
	assert.ErrorContains(t, err, EnvDatabaseURL)

	_, err = LoadMainConfig(writeConfig(t, "csv_settings: [1, 2]\n"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().HistoryDir, cfg.HistoryDir)

	_, err = LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
