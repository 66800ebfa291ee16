package rates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

const dolarPayload = `[
	{"casa": "oficial", "nombre": "Oficial", "venta": 1000.50},
	{"casa": "blue", "nombre": "Blue", "venta": 1300},
	{"casa": "bolsa", "nombre": "Bolsa", "venta": 1250}
]`

const geckoPayload = `{"bitcoin": {"usd": 50000, "ars": 65000000}}`

func TestFetchDaily(t *testing.T) {
	dolar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dolarPayload))
	}))
	defer dolar.Close()

	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "bitcoin" {
			t.Errorf("ids = %q, want bitcoin", r.URL.Query().Get("ids"))
		}
		if r.URL.Query().Get("vs_currencies") != "usd,ars" {
			t.Errorf("vs_currencies = %q, want usd,ars", r.URL.Query().Get("vs_currencies"))
		}
		w.Write([]byte(geckoPayload))
	}))
	defer gecko.Close()

	client := NewClient(dolar.URL, gecko.URL, 5*time.Second)
	values, raw, err := client.FetchDaily(context.Background())
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}

	if values.USDARSOfficial.String() != "1000.5" {
		t.Errorf("official = %s, want 1000.5", values.USDARSOfficial)
	}
	if !values.USDARSBlue.Valid || values.USDARSBlue.Decimal.String() != "1300" {
		t.Errorf("blue = %+v, want 1300", values.USDARSBlue)
	}
	if values.BTCUSD.String() != "50000" {
		t.Errorf("BTC/USD = %s, want 50000", values.BTCUSD)
	}
	if values.BTCARS.String() != "65000000" {
		t.Errorf("BTC/ARS = %s, want 65000000", values.BTCARS)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("raw payload not JSON: %v", err)
	}
	if _, ok := payload["dolarapi"]; !ok {
		t.Error("raw payload missing dolarapi response")
	}
	if _, ok := payload["coingecko"]; !ok {
		t.Error("raw payload missing coingecko response")
	}
}

func TestFetchDailyMissingBlueIsAllowed(t *testing.T) {
	dolar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"casa": "oficial", "venta": 1000}]`))
	}))
	defer dolar.Close()
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geckoPayload))
	}))
	defer gecko.Close()

	values, _, err := NewClient(dolar.URL, gecko.URL, 5*time.Second).FetchDaily(context.Background())
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}
	if values.USDARSBlue.Valid {
		t.Errorf("blue = %+v, want invalid", values.USDARSBlue)
	}
}

func TestFetchDailyFailures(t *testing.T) {
	ok := func(body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
	}
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	tests := []struct {
		name      string
		dolar     *httptest.Server
		coingecko *httptest.Server
	}{
		{"dolar provider down", broken, ok(geckoPayload)},
		{"coingecko down", ok(dolarPayload), broken},
		{"official quote missing", ok(`[{"casa": "blue", "venta": 1300}]`), ok(geckoPayload)},
		{"bitcoin price missing", ok(dolarPayload), ok(`{}`)},
		{"malformed dolar body", ok(`not json`), ok(geckoPayload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.dolar.Close()
			defer tt.coingecko.Close()

			client := NewClient(tt.dolar.URL, tt.coingecko.URL, 5*time.Second)
			_, _, err := client.FetchDaily(context.Background())
			if !errors.Is(err, core.ErrRateFetchFailed) {
				t.Fatalf("error = %v, want ErrRateFetchFailed", err)
			}
		})
	}
}
