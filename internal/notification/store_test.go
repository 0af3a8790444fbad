package notification

import (
	"reflect"
	"testing"

	"github.com/mktitov/kiko-test/pkg/model"
)

// storeFactories はテスト対象のストア実装を生成する関数の一覧。
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			t.Helper()
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			t.Helper()
			s, err := OpenSQLiteStore(t.Context(), ":memory:", nil)
			if err != nil {
				t.Fatalf("SQLiteストアの作成に失敗: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

// TestStore は各ストア実装が同じ振る舞いをすることを検証する。
func TestStore(t *testing.T) {
	t.Parallel()

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("連番がテナントごとに0から採番されること", func(t *testing.T) {
				t.Parallel()
				s := newStore(t)

				for i := 0; i < 3; i++ {
					rec, err := s.Append(5, model.NeedConfirmation{FlatID: 1, Time: int64(i)})
					if err != nil {
						t.Fatalf("Append()でエラーが発生: %v", err)
					}
					if rec.ID != i {
						t.Errorf("ID = %d, want %d", rec.ID, i)
					}
				}
				rec, err := s.Append(9, model.ReservationCanceled{FlatID: 2, Time: 10})
				if err != nil {
					t.Fatalf("Append()でエラーが発生: %v", err)
				}
				if rec.ID != 0 {
					t.Errorf("別テナントのID = %d, want 0", rec.ID)
				}
			})

			t.Run("カーソル以降のレコードだけが返ること", func(t *testing.T) {
				t.Parallel()
				s := newStore(t)

				want := []model.NotificationRecord{
					{ID: 0, Notification: model.ReservationConfirmation{FlatID: 1, Time: 100, Agreed: true}},
					{ID: 1, Notification: model.NeedConfirmation{FlatID: 2, Time: 200}},
					{ID: 2, Notification: model.ReservationCanceled{FlatID: 3, Time: 300}},
				}
				for _, r := range want {
					if _, err := s.Append(5, r.Notification); err != nil {
						t.Fatalf("Append()でエラーが発生: %v", err)
					}
				}

				all, err := s.List(5, nil)
				if err != nil {
					t.Fatalf("List()でエラーが発生: %v", err)
				}
				if !reflect.DeepEqual(all, want) {
					t.Errorf("List(nil) = %+v, want %+v", all, want)
				}

				from := 1
				got, err := s.List(5, &from)
				if err != nil {
					t.Fatalf("List()でエラーが発生: %v", err)
				}
				if !reflect.DeepEqual(got, want[1:]) {
					t.Errorf("List(1) = %+v, want %+v", got, want[1:])
				}

				beyond := 10
				got, err = s.List(5, &beyond)
				if err != nil {
					t.Fatalf("List()でエラーが発生: %v", err)
				}
				if len(got) != 0 {
					t.Errorf("範囲外のカーソルで %d 件返った", len(got))
				}
			})

			t.Run("通知がないテナントは空スライス", func(t *testing.T) {
				t.Parallel()
				s := newStore(t)

				got, err := s.List(42, nil)
				if err != nil {
					t.Fatalf("List()でエラーが発生: %v", err)
				}
				if got == nil || len(got) != 0 {
					t.Errorf("List() = %#v, want 空スライス", got)
				}
			})
		})
	}
}
