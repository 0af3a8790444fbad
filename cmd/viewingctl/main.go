// viewingctl はviewingサービスのAPIを呼び出すコマンドラインクライアント。
//
// 使い方:
//
//	viewingctl [-addr URL] [-tenant ID] [-token JWT] <command> [args]
//
// コマンド:
//
//	flat <flatID>
//	schedule <flatID>
//	reserve|confirm|reject|cancel <flatID> <time>
//	notifications [from]
//	token -secret SECRET [-ttl 24h] <tenantID>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mktitov/kiko-test/pkg/httpclient"
	"github.com/mktitov/kiko-test/pkg/middleware"
)

// errUsage は引数が不正な場合のエラー。
var errUsage = errors.New("引数が不正です")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("viewingctl", flag.ContinueOnError)
	addr := fs.String("addr", envOr("VIEWING_ADDR", "http://localhost:8080"), "viewingサービスのベースURL")
	tenant := fs.Int("tenant", -1, "テナントID（tenantIdクエリとして送る）")
	token := fs.String("token", os.Getenv("VIEWING_TOKEN"), "Bearerトークン")
	timeout := fs.Duration("timeout", 10*time.Second, "リクエストのタイムアウト")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: コマンドを指定してください", errUsage)
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "token" {
		return runToken(rest, out)
	}

	if *tenant >= 0 {
		ctx = httpclient.WithTenantID(ctx, *tenant)
	}
	if *token != "" {
		ctx = httpclient.WithToken(ctx, *token)
	}
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client := httpclient.New(*addr, nil)

	switch cmd {
	case "flat":
		flatID, err := intArg(rest, 0, "flatID")
		if err != nil {
			return err
		}
		flat, err := client.GetFlat(ctx, flatID)
		if err != nil {
			return err
		}
		return printJSON(out, flat)

	case "schedule":
		flatID, err := intArg(rest, 0, "flatID")
		if err != nil {
			return err
		}
		slots, err := client.GetSchedule(ctx, flatID)
		if err != nil {
			return err
		}
		return printJSON(out, slots)

	case "reserve", "confirm", "reject", "cancel":
		flatID, err := intArg(rest, 0, "flatID")
		if err != nil {
			return err
		}
		slotTime, err := int64Arg(rest, 1, "time")
		if err != nil {
			return err
		}
		action := map[string]func(context.Context, int, int64) (bool, error){
			"reserve": client.Reserve,
			"confirm": client.Confirm,
			"reject":  client.Reject,
			"cancel":  client.Cancel,
		}[cmd]
		accepted, err := action(ctx, flatID, slotTime)
		if err != nil {
			return err
		}
		return printJSON(out, accepted)

	case "notifications":
		var from *int
		if len(rest) > 0 {
			n, err := intArg(rest, 0, "from")
			if err != nil {
				return err
			}
			from = &n
		}
		records, err := client.Notifications(ctx, from)
		if err != nil {
			return err
		}
		return printJSON(out, records)

	default:
		return fmt.Errorf("%w: 不明なコマンド %q", errUsage, cmd)
	}
}

// runToken はテナントトークンを発行して出力する。
func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "署名鍵")
	ttl := fs.Duration("ttl", 24*time.Hour, "有効期間")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *secret == "" {
		return fmt.Errorf("%w: -secret または JWT_SECRET が必要です", errUsage)
	}
	tenantID, err := intArg(fs.Args(), 0, "tenantID")
	if err != nil {
		return err
	}

	token, err := middleware.GenerateTenantToken(*secret, tenantID, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// intArg はi番目の位置引数を整数として取り出す。
func intArg(args []string, i int, name string) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: %sを指定してください", errUsage, name)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %sが整数ではありません: %q", errUsage, name, args[i])
	}
	return n, nil
}

// int64Arg はi番目の位置引数をint64として取り出す。
func int64Arg(args []string, i int, name string) (int64, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("%w: %sを指定してください", errUsage, name)
	}
	n, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %sが整数ではありません: %q", errUsage, name, args[i])
	}
	return n, nil
}

// printJSON は値をインデント付きのJSONで出力する。
func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// envOr は環境変数を取得し、未設定の場合はデフォルト値を返す。
func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
