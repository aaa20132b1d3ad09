package vnpay

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	c := NewClient("TESTCODE", "test-secret", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "http://localhost:8080/return")
	c.Now = func() time.Time { return time.Date(2026, 8, 31, 5, 0, 0, 0, time.UTC) }
	return c
}

func TestBuildPaymentURL(t *testing.T) {
	c := testClient()
	raw := c.BuildPaymentURL(PayRequest{
		TxnRef:    "DEP-abc123",
		Amount:    100_000,
		OrderInfo: "Nap tien vi 100000 VND",
		ClientIP:  "203.0.113.9",
		BankCode:  "NCB",
		Expire:    15 * time.Minute,
	})
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "TESTCODE", q.Get("vnp_TmnCode"))
	assert.Equal(t, "10000000", q.Get("vnp_Amount"), "amount is encoded in minor units")
	assert.Equal(t, "DEP-abc123", q.Get("vnp_TxnRef"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	// 05:00 UTC is 12:00 in GMT+7
	assert.Equal(t, "20260831120000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20260831121500", q.Get("vnp_ExpireDate"), "expiry window is 15 minutes")
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))
}

func TestBuiltURLVerifies(t *testing.T) {
	c := testClient()
	raw := c.BuildPaymentURL(PayRequest{
		TxnRef:   "DEP-roundtrip",
		Amount:   50_000,
		ClientIP: "127.0.0.1",
		Expire:   15 * time.Minute,
	})
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, c.VerifyCallback(u.Query()), "a URL we signed must verify")
}

func TestVerifyCallbackRejectsTampering(t *testing.T) {
	c := testClient()
	params := url.Values{}
	params.Set("vnp_TxnRef", "DEP-x")
	params.Set("vnp_Amount", "10000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_SecureHash", c.Sign(params))
	require.True(t, c.VerifyCallback(params))

	for _, field := range []string{"vnp_TxnRef", "vnp_Amount", "vnp_ResponseCode"} {
		tampered := url.Values{}
		for k, vs := range params {
			for _, v := range vs {
				tampered.Add(k, v)
			}
		}
		tampered.Set(field, tampered.Get(field)+"x")
		assert.False(t, c.VerifyCallback(tampered), "altering %s after signing must fail", field)
	}
}

func TestVerifyCallbackAddedFieldFails(t *testing.T) {
	c := testClient()
	params := url.Values{}
	params.Set("vnp_TxnRef", "DEP-x")
	params.Set("vnp_Amount", strconv.FormatInt(100_000*100, 10))
	params.Set("vnp_SecureHash", c.Sign(params))
	params.Set("vnp_ResponseCode", "00") // injected after signing
	assert.False(t, c.VerifyCallback(params))
}

func TestVerifyCallbackMissingHash(t *testing.T) {
	c := testClient()
	params := url.Values{}
	params.Set("vnp_TxnRef", "DEP-x")
	assert.False(t, c.VerifyCallback(params))
}

func TestVerifyCallbackIgnoresHashTypeField(t *testing.T) {
	c := testClient()
	params := url.Values{}
	params.Set("vnp_TxnRef", "DEP-x")
	params.Set("vnp_Amount", "500000")
	sig := c.Sign(params)
	params.Set("vnp_SecureHashType", "HmacSHA512")
	params.Set("vnp_SecureHash", strings.ToUpper(sig))
	assert.True(t, c.VerifyCallback(params), "hash comparison is case-insensitive and excludes the hash-type field")
}

func TestVerifyCallbackWrongSecret(t *testing.T) {
	c := testClient()
	other := NewClient("TESTCODE", "other-secret", c.BaseURL, c.ReturnURL)
	params := url.Values{}
	params.Set("vnp_TxnRef", "DEP-x")
	params.Set("vnp_SecureHash", other.Sign(params))
	assert.False(t, c.VerifyCallback(params))
}
