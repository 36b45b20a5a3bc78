package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"esm/src/db"
	"esm/src/lib"
	"esm/src/middlewares"
	"esm/src/types"
	"esm/src/utils"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-faker/faker/v4"
	"github.com/go-playground/validator/v10"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB    *gorm.DB
	Mock  *sqlmock.Sqlmock
	Token *string
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

// freshMockDB installs a new sqlmock-backed connection so a test owns its
// ordered expectations end to end.
func (s *TestSuite) freshMockDB() sqlmock.Sqlmock {
	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = &mock
	return mock
}

// gatewaySignature computes the checksum the gateway attaches to a
// successful checkout.
func gatewaySignature(orderId, paymentId, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderId + "|" + paymentId))
	return hex.EncodeToString(mac.Sum(nil))
}

// testAuthMiddleware stands in for the real middleware so request validation
// paths can be exercised without touching the database.
func testAuthMiddleware(uid uint, role types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set("id", uid)
		ctx.Set("email", "someone@example.com")
		ctx.Set("role", string(role))
	}
}

func (s *TestSuite) SetupSuite() {
	os.Setenv("API_ENV", "test")

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", serviceDateValidatorFunc)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = &mock

	token, err := utils.GenerateJWT("someone@example.com", 1, types.ROLE_CUSTOMER)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
		return
	}
	s.Token = &token
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestSecureHeaders() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(s.T(), "DENY", w.Header().Get("X-Frame-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthRoutes() {
	router := setupRouter()
	publicRoutes(router)

	s.Run("Should reject a malformed email with 400", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"email": "not-an-email"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/otp/request", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.False(s.T(), gjson.GetBytes(rbytes, "success").Bool())
	})

	s.Run("Should reject a short code with 400", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"email": faker.Email(), "code": "123"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/auth/otp/verify", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestUnauthorizedAccess() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(AuthMiddlewareForTest())
	bookingHandlers(apiv1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings/1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

// AuthMiddlewareForTest rejects requests without a bearer token, mirroring
// the first gate of the real middleware.
func AuthMiddlewareForTest() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		if !strings.HasPrefix(bearerToken, "Bearer") {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}
}

func (s *TestSuite) TestAuthorizedBookingList() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	bookingHandlers(apiv1)

	mock := s.freshMockDB()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role"}).
			AddRow(1, "Someone", "someone@example.com", "customer"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings/user/1", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *s.Token))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	resbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	assert.True(s.T(), gjson.GetBytes(resbytes, "success").Bool())
	assert.Equal(s.T(), int64(0), gjson.GetBytes(resbytes, "data.pagination.totalBookings").Int())
	assert.Nil(s.T(), mock.ExpectationsWereMet())
}

func (s *TestSuite) TestBookingValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware(1, types.ROLE_CUSTOMER))
	bookingHandlers(apiv1)

	s.Run("Should reject a past service date with 400", func() {
		w := httptest.NewRecorder()
		body := types.CreateBookingRequestBody{
			VendorID:    2,
			ListingID:   3,
			ServiceDate: "2020-01-15 10:00:00 +05:30",
			Location:    "Mumbai",
			Pricing:     types.PricingSnapshot{BaseAmount: 50000, DepositAmount: 5000, Currency: "INR"},
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.False(s.T(), gjson.GetBytes(resbytes, "success").Bool())
	})

	s.Run("Should reject an off-policy deposit with 400", func() {
		w := httptest.NewRecorder()
		future := time.Now().Add(30 * 24 * time.Hour).Format("2006-01-02 15:04:05 -07:00")
		body := types.CreateBookingRequestBody{
			VendorID:    2,
			ListingID:   3,
			ServiceDate: future,
			Location:    "Mumbai",
			Pricing:     types.PricingSnapshot{BaseAmount: 50000, DepositAmount: 20000, Currency: "INR"},
		}
		rbytes, _ := json.Marshal(&body)
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		msg := gjson.GetBytes(resbytes, "message").String()
		assert.NotEmpty(s.T(), msg)
	})

	s.Run("Should refuse another customer's booking list with 403", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/user/42", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})
}

func (s *TestSuite) TestPaymentValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware(1, types.ROLE_CUSTOMER))
	paymentHandlers(apiv1)

	s.Run("Should reject a verification request missing the signature", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{
			"razorpayOrderId":   "order_abc123",
			"razorpayPaymentId": "pay_abc123",
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/payments/verify", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a refund with a malformed payment id", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/payments/not-a-uuid/refund", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should acknowledge a malformed failure report with 200", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/payments/failure", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})
}

func (s *TestSuite) TestPaymentVerification() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware(1, types.ROLE_CUSTOMER))
	paymentHandlers(apiv1)

	paymentColumns := []string{
		"id", "booking_id", "customer_id", "vendor_id",
		"gateway_order_id", "gateway_payment_id", "amount", "currency", "status",
	}
	paymentId := "9f9d4f6e-7f64-4bfb-9d3b-6a1d9b3c2a10"

	s.Run("Should replay an already captured payment without changing it", func() {
		mock := s.freshMockDB()
		mock.ExpectQuery(`SELECT (.+) FROM "payments"`).
			WillReturnRows(sqlmock.NewRows(paymentColumns).
				AddRow(paymentId, 7, 1, 2, "order_abc123", "pay_abc123", 500000, "INR", "captured"))
		mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "booking_number", "customer_id", "vendor_id", "status", "payment_status"}).
				AddRow(7, "EVB-20260810-0001", 1, 2, "confirmed", "paid"))

		w := httptest.NewRecorder()
		jbody := map[string]any{
			"razorpayOrderId":   "order_abc123",
			"razorpayPaymentId": "pay_abc123",
			"razorpaySignature": "ignored-on-replay",
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/payments/verify", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.True(s.T(), gjson.GetBytes(resbytes, "success").Bool())
		assert.Equal(s.T(), "captured", gjson.GetBytes(resbytes, "data.payment.status").String())
		assert.Equal(s.T(), "confirmed", gjson.GetBytes(resbytes, "data.booking.status").String())
		// No writes were expected, only the two reads above.
		assert.Nil(s.T(), mock.ExpectationsWereMet())
	})

	s.Run("Should mark the payment failed on a tampered signature", func() {
		mock := s.freshMockDB()
		mock.ExpectQuery(`SELECT (.+) FROM "payments"`).
			WillReturnRows(sqlmock.NewRows(paymentColumns).
				AddRow(paymentId, 7, 1, 2, "order_abc123", nil, 500000, "INR", "created"))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "payments"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		w := httptest.NewRecorder()
		jbody := map[string]any{
			"razorpayOrderId":   "order_abc123",
			"razorpayPaymentId": "pay_abc123",
			"razorpaySignature": "deadbeef",
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/payments/verify", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.False(s.T(), gjson.GetBytes(resbytes, "success").Bool())
		// The booking stays untouched; only the payment row is written.
		assert.Nil(s.T(), mock.ExpectationsWereMet())
	})

	s.Run("Should reject a capture when the payment is no longer open", func() {
		os.Setenv("RAZORPAY_KEY_SECRET", "test-secret")
		defer os.Unsetenv("RAZORPAY_KEY_SECRET")

		gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"pay_abc123","method":"upi","vpa":"someone@upi"}`)
		}))
		defer gateway.Close()
		rz := razorpay.NewClient("rzp_test_stub", "test-secret")
		rz.Payment.Request.BaseURL = gateway.URL
		lib.NewRazorpayClient(rz)
		defer lib.NewRazorpayClient(nil)

		mock := s.freshMockDB()
		mock.ExpectQuery(`SELECT (.+) FROM "payments"`).
			WillReturnRows(sqlmock.NewRows(paymentColumns).
				AddRow(paymentId, 7, 1, 2, "order_abc123", nil, 500000, "INR", "failed"))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "payments"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		w := httptest.NewRecorder()
		jbody := map[string]any{
			"razorpayOrderId":   "order_abc123",
			"razorpayPaymentId": "pay_abc123",
			"razorpaySignature": gatewaySignature("order_abc123", "pay_abc123", "test-secret"),
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/payments/verify", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.Equal(s.T(), "Payment was already processed", gjson.GetBytes(resbytes, "message").String())
		assert.Nil(s.T(), mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestReviewValidation() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuthMiddleware(1, types.ROLE_CUSTOMER))
	reviewHandlers(apiv1)

	s.Run("Should reject an out-of-range rating with 400", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"bookingId": 1, "rating": 6, "comment": "Fantastic event, would book again"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/reviews/create", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject a too-short comment with 400", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{"bookingId": 1, "rating": 5, "comment": "ok"}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/reviews/create", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		msg := gjson.GetBytes(resbytes, "message").String()
		assert.Contains(s.T(), msg, fmt.Sprintf("%d", 10))
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
