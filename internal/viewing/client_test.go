package viewing

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/mktitov/kiko-test/pkg/httpclient"
	"github.com/mktitov/kiko-test/pkg/middleware"
	"github.com/mktitov/kiko-test/pkg/model"
)

// TestClientRoundTrip はAPIクライアント経由で予約の流れを検証する。
func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	s := setupServer(t, testSecret)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	client := httpclient.New(ts.URL, ts.Client())
	ctx := context.Background()
	tenant := httpclient.WithTenantID(ctx, 7)

	token, err := middleware.GenerateTenantToken(testSecret, occupant, 0)
	if err != nil {
		t.Fatalf("トークンの生成に失敗: %v", err)
	}
	owner := httpclient.WithToken(ctx, token)

	if _, err := client.GetFlat(ctx, 99); !errors.Is(err, httpclient.ErrNotFound) {
		t.Errorf("存在しない物件: err = %v, want ErrNotFound", err)
	}
	if _, err := client.Reserve(ctx, occupiedFlat, slotTime); !errors.Is(err, httpclient.ErrUnauthorized) {
		t.Errorf("テナントなしの予約: err = %v, want ErrUnauthorized", err)
	}

	accepted, err := client.Reserve(tenant, occupiedFlat, slotTime)
	if err != nil || !accepted {
		t.Fatalf("Reserve() = %v, %v", accepted, err)
	}
	accepted, err = client.Reject(owner, occupiedFlat, slotTime)
	if err != nil || !accepted {
		t.Fatalf("Reject() = %v, %v", accepted, err)
	}

	slots, err := client.GetSchedule(ctx, occupiedFlat)
	if err != nil {
		t.Fatalf("GetSchedule()でエラーが発生: %v", err)
	}
	if slots[0].State() != model.SlotStateClosed {
		t.Errorf("拒否後の枠の状態 = %s, want closed", slots[0].State())
	}

	records, err := client.Notifications(tenant, nil)
	if err != nil {
		t.Fatalf("Notifications()でエラーが発生: %v", err)
	}
	want := model.ReservationConfirmation{FlatID: occupiedFlat, Time: slotTime, Agreed: false}
	if len(records) != 1 || records[0].Notification != want {
		t.Errorf("予約者への通知 = %+v, want %+v", records, want)
	}

	from := 1
	records, err = client.Notifications(owner, &from)
	if err != nil {
		t.Fatalf("Notifications()でエラーが発生: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("カーソル1以降の入居者の通知 = %+v, want empty", records)
	}
}
