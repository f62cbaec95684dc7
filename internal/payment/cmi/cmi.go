package cmi

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("cmi config invalid")
	ErrSignatureInvalid = errors.New("cmi signature invalid")
	ErrCallbackInvalid  = errors.New("cmi callback invalid")
)

// 不参与签名的字段（大小写不敏感）
var excludedHashFields = map[string]struct{}{
	"hash":     {},
	"encoding": {},
}

// Callback CMI 异步回调（只保留结算所需字段）
type Callback struct {
	OrderID          string       // oid，对应预订编号
	Amount           models.Money // amount
	Currency         string       // currency
	TransID          string       // TransId
	ProcReturnCode   string       // ProcReturnCode
	ProcResponseCode string       // ProcResponseCode（部分版本使用）
	Response         string       // Response
	ErrMsg           string       // ErrMsg
	PaidAt           time.Time
	Raw              map[string]string
}

// Approved 判断交易是否成功
func (c *Callback) Approved() bool {
	if c == nil {
		return false
	}
	return IsApproved(c.Raw)
}

// ValidateStoreKey 校验商户 store key
func ValidateStoreKey(storeKey string) error {
	if strings.TrimSpace(storeKey) == "" {
		return fmt.Errorf("%w: store_key is required", ErrConfigInvalid)
	}
	return nil
}

// FlattenForm 取每个字段的第一个值
func FlattenForm(form map[string][]string) map[string]string {
	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	return params
}

// ComputeHash 计算 ver3 签名：
// 字段名大小写不敏感排序，排除 HASH/encoding，值转义后以 | 连接并追加转义后的 store key，
// 取 SHA-512 后 base64 编码。
func ComputeHash(storeKey string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if _, skip := excludedHashFields[strings.ToLower(key)]; skip {
			continue
		}
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		li, lj := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if li == lj {
			return keys[i] < keys[j]
		}
		return li < lj
	})

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(escapeHashValue(params[key]))
		builder.WriteByte('|')
	}
	builder.WriteString(escapeHashValue(storeKey))

	sum := sha512.Sum512([]byte(builder.String()))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyHash 校验回调签名（常量时间比较）
func VerifyHash(storeKey string, params map[string]string) error {
	if err := ValidateStoreKey(storeKey); err != nil {
		return err
	}
	received := strings.TrimSpace(lookup(params, "HASH"))
	if received == "" {
		return ErrSignatureInvalid
	}
	expected := ComputeHash(storeKey, params)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return ErrSignatureInvalid
	}
	return nil
}

// IsApproved ProcReturnCode/ProcResponseCode 为 00 或 Response 为 Approved 视为成功
func IsApproved(params map[string]string) bool {
	if strings.TrimSpace(lookup(params, "ProcReturnCode")) == constants.CMIProcResponseApproved {
		return true
	}
	if strings.TrimSpace(lookup(params, "ProcResponseCode")) == constants.CMIProcResponseApproved {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(lookup(params, "Response")), constants.CMIResponseApproved)
}

// ParseCallback 校验签名并解析回调
func ParseCallback(storeKey string, form map[string][]string, receivedAt time.Time) (*Callback, error) {
	params := FlattenForm(form)
	if err := VerifyHash(storeKey, params); err != nil {
		return nil, err
	}
	orderID := strings.TrimSpace(lookup(params, "oid"))
	if orderID == "" {
		return nil, fmt.Errorf("%w: oid is required", ErrCallbackInvalid)
	}
	callback := &Callback{
		OrderID:          orderID,
		Currency:         strings.TrimSpace(lookup(params, "currency")),
		TransID:          strings.TrimSpace(lookup(params, "TransId")),
		ProcReturnCode:   strings.TrimSpace(lookup(params, "ProcReturnCode")),
		ProcResponseCode: strings.TrimSpace(lookup(params, "ProcResponseCode")),
		Response:         strings.TrimSpace(lookup(params, "Response")),
		ErrMsg:           strings.TrimSpace(lookup(params, "ErrMsg")),
		PaidAt:           receivedAt,
		Raw:              params,
	}
	if raw := strings.TrimSpace(lookup(params, "amount")); raw != "" {
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q", ErrCallbackInvalid, raw)
		}
		callback.Amount = models.NewMoneyFromDecimal(amount)
	}
	return callback, nil
}

func escapeHashValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, "|", `\|`)
}

// lookup 大小写不敏感地读取字段
func lookup(params map[string]string, key string) string {
	if value, ok := params[key]; ok {
		return value
	}
	for k, value := range params {
		if strings.EqualFold(k, key) {
			return value
		}
	}
	return ""
}
