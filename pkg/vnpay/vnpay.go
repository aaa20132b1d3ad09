// Package vnpay builds signed VNPay redirect URLs and verifies callback
// signatures. One Client is constructed at startup and shared; it holds no
// mutable state.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	Version    = "2.1.0"
	CommandPay = "pay"
	CurrCode   = "VND"
	LocaleVN   = "vn"

	// RespCodeSuccess is the gateway response code for a successful payment.
	RespCodeSuccess = "00"

	dateFormat = "20060102150405"
)

// VNPay stamps are local to Vietnam regardless of server timezone.
var tzVietnam = time.FixedZone("ICT", 7*60*60)

type Client struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string

	// Now is overridable for deterministic create/expire stamps in tests.
	Now func() time.Time
}

func NewClient(tmnCode, hashSecret, baseURL, returnURL string) *Client {
	return &Client{
		TmnCode:    tmnCode,
		HashSecret: hashSecret,
		BaseURL:    baseURL,
		ReturnURL:  returnURL,
		Now:        time.Now,
	}
}

// PayRequest describes one outbound payment redirect.
type PayRequest struct {
	TxnRef    string        // unique order reference
	Amount    int64         // VND; encoded in minor units (x100) on the wire
	OrderInfo string
	ClientIP  string
	BankCode  string        // optional bank hint
	Expire    time.Duration // vnp_ExpireDate window from now
}

// BuildPaymentURL assembles the full redirect URL with vnp_SecureHash
// computed over the lexicographically sorted, query-encoded parameter set.
func (c *Client) BuildPaymentURL(req PayRequest) string {
	now := c.Now().In(tzVietnam)
	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", CommandPay)
	params.Set("vnp_TmnCode", c.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount*100, 10))
	params.Set("vnp_CurrCode", CurrCode)
	params.Set("vnp_TxnRef", req.TxnRef)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", LocaleVN)
	params.Set("vnp_ReturnUrl", c.ReturnURL)
	params.Set("vnp_IpAddr", req.ClientIP)
	params.Set("vnp_CreateDate", now.Format(dateFormat))
	params.Set("vnp_ExpireDate", now.Add(req.Expire).Format(dateFormat))
	if req.BankCode != "" {
		params.Set("vnp_BankCode", req.BankCode)
	}
	query := params.Encode()
	return c.BaseURL + "?" + query + "&vnp_SecureHash=" + c.sign(query)
}

// VerifyCallback recomputes the signature over every field except the hash
// fields themselves and compares it to vnp_SecureHash. Both the return
// redirect and the server-to-server IPN go through here.
func (c *Client) VerifyCallback(params url.Values) bool {
	got := params.Get("vnp_SecureHash")
	if got == "" {
		return false
	}
	signed := url.Values{}
	for k, vs := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		for _, v := range vs {
			signed.Add(k, v)
		}
	}
	want := c.sign(signed.Encode())
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}

// Sign exposes the keyed hash for callers that need to construct signed
// parameter sets (e.g. gateway simulators in tests).
func (c *Client) Sign(params url.Values) string {
	return c.sign(params.Encode())
}

func (c *Client) sign(encoded string) string {
	mac := hmac.New(sha512.New, []byte(c.HashSecret))
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
