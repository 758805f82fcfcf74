package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balance-report/config"
	"balance-report/gateway"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fakeExchange(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/me/getbalance":
			io.WriteString(w, `[{"currency_code":"JPY","amount":100001,"available":100000.4},{"currency_code":"BTC","amount":0.5,"available":0.5}]`)
		case "/btc_jpy/ticker":
			io.WriteString(w, `{"success":1,"data":{"last":"15000000"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func reportConfig(baseURL string, extra string) string {
	return fmt.Sprintf(`
brokers:
  - broker: Bitflyer
    enabled: true
    key: k
    secret: s
    baseURL: %[1]s
  - broker: Coincheck
  - broker: Quoine
  - broker: Bitbankcc
  - broker: Btcbox
ticker:
  baseURL: %[1]s
%[2]s`, baseURL, extra)
}

func TestRootRunsReport(t *testing.T) {
	ts := fakeExchange(t)
	path := writeConfig(t, reportConfig(ts.URL, ""))

	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), []string{"--config", path}, &stdout, &stderr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Date, Exchange, Currency, Type, Amount", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ", bitFlyer, JPY, Cash, 100000"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ", bitFlyer, BTC, Cash, 0.5"), lines[2])
	assert.True(t, strings.HasSuffix(lines[5], ", summary, SUM, Cash, 7600000"), lines[5])
	assert.Empty(t, stderr.String())
}

func TestRootFetchFailure(t *testing.T) {
	ts := fakeExchange(t)
	path := writeConfig(t, reportConfig(ts.URL+"/missing", ""))

	var stdout bytes.Buffer
	err := Execute(context.Background(), []string{"-c", path}, &stdout, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bitFlyer")
	assert.Equal(t, "Date, Exchange, Currency, Type, Amount\n", stdout.String())
}

func TestRootMissingConfig(t *testing.T) {
	err := Execute(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, io.Discard, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRootPushesMetrics(t *testing.T) {
	ts := fakeExchange(t)
	pushed := make(chan string, 1)
	pg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer pg.Close()

	path := writeConfig(t, reportConfig(ts.URL, fmt.Sprintf("metrics:\n  pushgatewayURL: %s\n", pg.URL)))
	require.NoError(t, Execute(context.Background(), []string{"--config", path}, io.Discard, io.Discard))

	select {
	case p := <-pushed:
		assert.Equal(t, "/metrics/job/balance_report", p)
	default:
		t.Fatal("expected a push to the pushgateway")
	}
}

func TestRunReportUnavailableIntegration(t *testing.T) {
	ts := fakeExchange(t)
	cfg := strings.Replace(reportConfig(ts.URL, ""), "  - broker: Btcbox\n", "  - broker: Btcbox\n    enabled: true\n    key: k\n    secret: s\n", 1)
	path := writeConfig(t, cfg)

	reg := gateway.NewRegistry()
	reg.Register(config.Bitflyer, func(bc config.BrokerConfig, opts gateway.Options) gateway.BalanceClient {
		return gateway.NewBitflyerClient(bc, opts)
	})
	var stdout bytes.Buffer
	err := runReport(context.Background(), &rootOptions{configPath: path, registry: reg}, &stdout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrUnavailable))
	assert.Empty(t, stdout.String())
}

func TestConfigValidate(t *testing.T) {
	ts := fakeExchange(t)
	path := writeConfig(t, reportConfig(ts.URL, ""))

	var stdout bytes.Buffer
	require.NoError(t, Execute(context.Background(), []string{"config", "validate", "--config", path}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "config ok")
	assert.Contains(t, stdout.String(), "1 of 5 exchanges enabled")

	bad := writeConfig(t, "brokers:\n  - broker: Bitflyer\n")
	err := Execute(context.Background(), []string{"config", "validate", "--config", bad}, io.Discard, io.Discard)
	var invalid config.ErrInvalid
	assert.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestExchangesCommand(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, Execute(context.Background(), []string{"exchanges"}, &stdout, io.Discard))
	out := stdout.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "Bitflyer")
	assert.Contains(t, lines[1], "bitFlyer")
	assert.Contains(t, lines[4], "bitbank")
	assert.Contains(t, lines[5], "btcbox")
	assert.NotContains(t, out, "unavailable")
}

func TestExchangesFlagsUnreportedIntegrations(t *testing.T) {
	reg := gateway.NewRegistry()
	stub := func(config.BrokerConfig, gateway.Options) gateway.BalanceClient { return nil }
	reg.Register(config.Bitflyer, stub)
	reg.Register("Zaif", stub)

	cmd := newExchangesCmd(&rootOptions{registry: reg})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[1], "available")
	assert.Contains(t, lines[2], "unavailable")
	assert.Contains(t, lines[6], "zaif")
	assert.Contains(t, lines[6], "registered, not reported")
}

func TestRootLogsCarryConfigPath(t *testing.T) {
	ts := fakeExchange(t)
	logPath := filepath.Join(t.TempDir(), "report.log")
	path := writeConfig(t, reportConfig(ts.URL, fmt.Sprintf(`logging:
  enabled: true
  level: info
  outputs: [file]
  output_file: %s
  format: json
`, logPath)))

	var stdout bytes.Buffer
	require.NoError(t, Execute(context.Background(), []string{"--config", path}, &stdout, io.Discard))

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"report complete"`)
	assert.Contains(t, string(raw), `"config":"`+path+`"`)
	assert.Contains(t, string(raw), `"exchanges":1`)
	assert.NotContains(t, stdout.String(), "report complete")
}
