package lib

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"esm/src/types"
	"log"
	"os"

	razorpay "github.com/razorpay/razorpay-go"
)

var razorpayClient *razorpay.Client

func GetRazorpayClient() *razorpay.Client {
	if razorpayClient != nil {
		return razorpayClient
	}
	keyId := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	rz := razorpay.NewClient(keyId, keySecret)
	// Gateway calls must not hang a request handler indefinitely
	rz.SetTimeout(30)
	razorpayClient = rz
	return rz
}

// NewRazorpayClient Replace gateway instance with custom client implementation
func NewRazorpayClient(c *razorpay.Client) {
	razorpayClient = c
}

func GetRazorpayKeyID() string {
	return os.Getenv("RAZORPAY_KEY_ID")
}

func GetRazorpaySecret() string {
	return os.Getenv("RAZORPAY_KEY_SECRET")
}

// VerifyPaymentSignature checks the HMAC-SHA256 the gateway computes over
// "orderId|paymentId". Comparison is constant-time.
func VerifyPaymentSignature(orderId, paymentId, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderId + "|" + paymentId))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func CreateGatewayOrder(amount int64, currency string, receipt string, notes map[string]any) (string, error) {
	rz := GetRazorpayClient()
	data := map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	order, err := rz.Order.Create(data, nil)
	if err != nil {
		log.Printf("[razorpay] Error creating order for receipt [%s]: %s\n", receipt, err.Error())
		return "", err
	}
	orderId, ok := order["id"].(string)
	if !ok || orderId == "" {
		return "", errors.New("gateway returned an order without an id")
	}
	return orderId, nil
}

// FetchPaymentDetails retrieves the authoritative method metadata for a
// captured payment. Callers treat a failure here as non-fatal.
func FetchPaymentDetails(paymentId string) (string, types.JSONB, error) {
	rz := GetRazorpayClient()
	payment, err := rz.Payment.Fetch(paymentId, nil, nil)
	if err != nil {
		return "", nil, err
	}
	method, _ := payment["method"].(string)
	details := types.JSONB{}
	for _, key := range []string{"bank", "wallet", "vpa", "card_id", "email", "contact"} {
		if v, ok := payment[key]; ok && v != nil {
			details[key] = v
		}
	}
	return method, details, nil
}

func RefundGatewayPayment(paymentId string, amount int64, notes map[string]any) (string, error) {
	rz := GetRazorpayClient()
	data := map[string]any{
		"notes": notes,
	}
	refund, err := rz.Payment.Refund(paymentId, int(amount), data, nil)
	if err != nil {
		log.Printf("[razorpay] Error refunding payment [%s]: %s\n", paymentId, err.Error())
		return "", err
	}
	refundId, ok := refund["id"].(string)
	if !ok || refundId == "" {
		return "", errors.New("gateway returned a refund without an id")
	}
	return refundId, nil
}
