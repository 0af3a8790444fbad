// Package model は内見予約サービス全体で共有するドメイン型を提供する。
//
// 物件（Flat）、内見枠（ViewingSlot）と三値の判断状態（Agreement）、
// 通知ペイロードの直和型（Notification）と通知レコードを定義する。
// 通知のJSON表現には "type" 判別子が付与され、エンベロープ型なしで
// 多相的なデシリアライズができる。
package model
