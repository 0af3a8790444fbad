package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Agreement は入居者による予約判断の三値状態を表す。
// JSONでは従来のnull許容booleanとして表現する（null=未判断, true=確定, false=拒否）。
type Agreement int

const (
	// AgreementPending はまだ判断がされていない状態。
	AgreementPending Agreement = iota
	// AgreementConfirmed は予約が確定した状態。
	AgreementConfirmed
	// AgreementRejected は予約が拒否された状態。
	AgreementRejected
)

// AgreementOf はbooleanの判断結果をAgreementに変換する。
func AgreementOf(agreed bool) Agreement {
	if agreed {
		return AgreementConfirmed
	}
	return AgreementRejected
}

// String はAgreementの文字列表現を返す。
func (a Agreement) String() string {
	switch a {
	case AgreementPending:
		return "pending"
	case AgreementConfirmed:
		return "confirmed"
	case AgreementRejected:
		return "rejected"
	default:
		return fmt.Sprintf("Agreement(%d)", int(a))
	}
}

// MarshalJSON はAgreementをnull/true/falseとしてシリアライズする。
func (a Agreement) MarshalJSON() ([]byte, error) {
	switch a {
	case AgreementPending:
		return []byte("null"), nil
	case AgreementConfirmed:
		return []byte("true"), nil
	case AgreementRejected:
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("不正なAgreement値: %d", int(a))
	}
}

// UnmarshalJSON はnull/true/falseからAgreementを復元する。
func (a *Agreement) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = AgreementPending
		return nil
	}
	var agreed bool
	if err := json.Unmarshal(data, &agreed); err != nil {
		return fmt.Errorf("Agreementのデシリアライズに失敗: %w", err)
	}
	*a = AgreementOf(agreed)
	return nil
}
