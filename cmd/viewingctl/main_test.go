package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mktitov/kiko-test/pkg/middleware"
)

// TestRun はサブコマンドがAPIを呼び出して結果を出力することを検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	var gotPath, gotTenant string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTenant = r.URL.Query().Get("tenantId")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`true`))
	}))
	t.Cleanup(ts.Close)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-addr", ts.URL, "-tenant", "7", "reserve", "1", "1700000000"}, &out)
	if err != nil {
		t.Fatalf("run()でエラーが発生: %v", err)
	}
	if gotPath != "/flats/1/schedules/1700000000/reserve" {
		t.Errorf("Path = %q", gotPath)
	}
	if gotTenant != "7" {
		t.Errorf("tenantId = %q, want 7", gotTenant)
	}
	if strings.TrimSpace(out.String()) != "true" {
		t.Errorf("出力 = %q, want true", out.String())
	}
}

// TestRunToken はtokenコマンドが検証可能なトークンを出力することを検証する。
func TestRunToken(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := run(context.Background(), []string{"token", "-secret", "s", "12"}, &out); err != nil {
		t.Fatalf("run()でエラーが発生: %v", err)
	}
	tenantID, err := middleware.ParseTenantToken("s", strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("トークンの検証に失敗: %v", err)
	}
	if tenantID != 12 {
		t.Errorf("tenantID = %d, want 12", tenantID)
	}
}

// TestRunUsage は不正な引数が使い方エラーになることを検証する。
func TestRunUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "コマンドなし", args: nil},
		{name: "不明なコマンド", args: []string{"unknown"}},
		{name: "物件IDなし", args: []string{"flat"}},
		{name: "整数でない時刻", args: []string{"reserve", "1", "abc"}},
		{name: "署名鍵なしのトークン発行", args: []string{"token", "-secret", "", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := run(context.Background(), tt.args, &bytes.Buffer{})
			if !errors.Is(err, errUsage) {
				t.Errorf("err = %v, want errUsage", err)
			}
		})
	}
}
