package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chris/teller-queue/pkg/auth"
	"github.com/chris/teller-queue/pkg/identity"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/ratelimit"
	"github.com/chris/teller-queue/pkg/service"
	"github.com/chris/teller-queue/pkg/storage/memory"
	"github.com/chris/teller-queue/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	tellerOneAddr  = "192.168.10.62:51000"
	tellerFourAddr = "192.168.10.61:51000"
	operatorAddr   = "192.168.10.199:51000"
	unknownAddr    = "10.9.9.9:51000"
)

type testServer struct {
	router http.Handler
	store  *memory.Store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *testServer {
	t.Helper()

	store := memory.New()
	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}
	for _, u := range []models.User{
		{Name: "Ana", LastName: "Cruz", Username: "teller", TellerNumber: 1},
		{Name: "Ben", LastName: "Reyes", Username: "operator", TellerNumber: 5},
		{Name: "Root", LastName: "Admin", Username: "admin", TellerNumber: auth.DefaultAdminTellerNumber},
	} {
		hash, err := hasher.Hash("pw-" + u.Username)
		require.NoError(t, err)
		u.PasswordHash = hash
		_, err = store.InsertUser(context.Background(), &u)
		require.NoError(t, err)
	}

	resolver := identity.NewResolver(identity.StationTable{
		"192.168.10.62":  1,
		"192.168.10.61":  4,
		"192.168.10.199": 5,
	})
	issuer, err := auth.NewIssuer(store, resolver, hasher, auth.Config{Secret: []byte("s3cret")}, discardLogger())
	require.NoError(t, err)

	svc := service.New(store, issuer, hasher, discardLogger())
	h := NewApiHandler(svc, limiter, discardLogger())
	return &testServer{router: NewRouter(h, RouterConfig{AllowedOrigins: []string{"http://192.168.10.245:3000"}}), store: store}
}

func (s *testServer) do(t *testing.T, method, path, token, remoteAddr, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = remoteAddr
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T, path, username, remoteAddr string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, path, "", remoteAddr, `{"Username":"`+username+`","Password":"pw-`+username+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp messageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Message
}

func decodeTransactions(t *testing.T, rr *httptest.ResponseRecorder) []models.Transaction {
	t.Helper()
	var resp transactionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Transactions
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rr := s.do(t, http.MethodGet, "/health", "", unknownAddr, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t, nil)
		rr := s.do(t, http.MethodPost, "/login", "", operatorAddr, `{"Username":"operator","Password":"pw-operator"}`)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Login successful", resp.Message)
		assert.Equal(t, models.RoleComputerOperator, resp.Role)
		assert.Equal(t, 5, resp.TellerNumber)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("Forwarded Origin", func(t *testing.T) {
		s := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"Username":"teller","Password":"pw-teller"}`))
		req.RemoteAddr = "127.0.0.1:9999"
		req.Header.Set(identity.HeaderForwardedFor, "::ffff:192.168.10.61")
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp loginResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.TellerNumber)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		s := newTestServer(t, nil)
		rr := s.do(t, http.MethodPost, "/login", "", tellerOneAddr, `{"Username":"teller","Password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid username or password", message(t, rr))
	})

	t.Run("Missing Fields", func(t *testing.T) {
		s := newTestServer(t, nil)
		rr := s.do(t, http.MethodPost, "/login", "", tellerOneAddr, `{"Username":"teller"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing required fields", message(t, rr))
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		s := newTestServer(t, nil)
		rr := s.do(t, http.MethodPost, "/login", "", tellerOneAddr, "not-json")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Administrator Through Station Login", func(t *testing.T) {
		s := newTestServer(t, nil)
		rr := s.do(t, http.MethodPost, "/login", "", tellerOneAddr, `{"Username":"admin","Password":"pw-admin"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		token := s.login(t, "/admin-login", "admin", tellerOneAddr)
		me := s.do(t, http.MethodGet, "/me", token, tellerOneAddr, "")
		require.Equal(t, http.StatusOK, me.Code)
		var p models.Principal
		require.NoError(t, json.Unmarshal(me.Body.Bytes(), &p))
		assert.Equal(t, models.RoleAdmin, p.Role)
	})

	t.Run("Throttled", func(t *testing.T) {
		s := newTestServer(t, ratelimit.NewLocalLimiter(1, time.Minute))
		rr := s.do(t, http.MethodPost, "/login", "", tellerOneAddr, `{"Username":"teller","Password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = s.do(t, http.MethodPost, "/login", "", tellerOneAddr, `{"Username":"teller","Password":"pw-teller"}`)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("Retry-After"))

		rr = s.do(t, http.MethodPost, "/login", "", tellerFourAddr, `{"Username":"teller","Password":"pw-teller"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Rotating Forwarded Header Stays Throttled", func(t *testing.T) {
		s := newTestServer(t, ratelimit.NewLocalLimiter(1, time.Minute))

		for i, forwarded := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"} {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"Username":"teller","Password":"nope"}`))
			req.RemoteAddr = unknownAddr
			req.Header.Set(identity.HeaderForwardedFor, forwarded)
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)

			if i == 0 {
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
				continue
			}
			assert.Equal(t, http.StatusTooManyRequests, rr.Code, "attempt %d from %s", i+1, forwarded)
		}
	})
}

func TestCORS(t *testing.T) {
	preflight := func(router http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/update-transaction-status/1", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Configured Origin", func(t *testing.T) {
		s := newTestServer(t, nil)

		rr := preflight(s.router, "http://192.168.10.245:3000")

		assert.Equal(t, "http://192.168.10.245:3000", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))

		rr = preflight(s.router, "http://evil.example")
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Any Origin Never Allows Credentials", func(t *testing.T) {
		router := NewRouter(NewApiHandler(nil, nil, discardLogger()), RouterConfig{})

		rr := preflight(router, "http://evil.example")

		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestAuthenticate(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(t, http.MethodGet, "/display-transactions", "", tellerOneAddr, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/display-transactions", "garbage", tellerOneAddr, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid or expired token", message(t, rr))

	rr = s.do(t, http.MethodPost, "/logout", "", tellerOneAddr, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCreateTransaction(t *testing.T) {
	t.Run("Numbers Or Strings", func(t *testing.T) {
		s := newTestServer(t, nil)
		token := s.login(t, "/login", "operator", operatorAddr)

		rr := s.do(t, http.MethodPost, "/create-transaction", token, operatorAddr,
			`{"AccountNumber":100234,"Name":"Maria Santos","TransactionType":"Deposit","Amount":"1500","AccountType":"Savings","DepositType":"Cash"}`)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp transactionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "100234", resp.Transaction.AccountNumber)
		assert.Equal(t, int32(1500), resp.Transaction.Amount)
		assert.Equal(t, models.StatusOpen, resp.Transaction.Status)
	})

	t.Run("Validation Reason", func(t *testing.T) {
		s := newTestServer(t, nil)
		token := s.login(t, "/login", "operator", operatorAddr)

		rr := s.do(t, http.MethodPost, "/create-transaction", token, operatorAddr,
			`{"AccountNumber":"1","Name":"Ana","TransactionType":"Deposit","Amount":10,"AccountType":"Savings"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Deposit type is required for deposit transactions", message(t, rr))

		rr = s.do(t, http.MethodPost, "/create-transaction", token, operatorAddr,
			`{"AccountNumber":"1","Name":"Ana","TransactionType":"Withdrawal","Amount":0,"AccountType":"Savings"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Amount must be greater than 0", message(t, rr))

		rr = s.do(t, http.MethodPost, "/create-transaction", token, operatorAddr,
			`{"AccountNumber":"1","Name":"Ana","TransactionType":"Withdrawal","Amount":2147483648,"AccountType":"Savings"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Tellers Forbidden", func(t *testing.T) {
		s := newTestServer(t, nil)
		token := s.login(t, "/login", "teller", tellerOneAddr)

		rr := s.do(t, http.MethodPost, "/create-withdrawal", token, tellerOneAddr,
			`{"AccountNumber":"1","Name":"Ana","Amount":10,"AccountType":"Savings"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Generic Storage Failure", func(t *testing.T) {
		store := new(mocks.Storage)
		store.On("InsertTransaction", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset by peer"))

		issuer, err := auth.NewIssuer(store, identity.NewResolver(nil), auth.BcryptHasher{}, auth.Config{Secret: []byte("s3cret")}, discardLogger())
		require.NoError(t, err)
		h := NewApiHandler(service.New(store, issuer, auth.BcryptHasher{}, discardLogger()), nil, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/create-withdrawal",
			strings.NewReader(`{"AccountNumber":"1","Name":"Ana","Amount":10,"AccountType":"Savings"}`))
		req = req.WithContext(context.WithValue(req.Context(), principalKey, models.Principal{Role: models.RoleComputerOperator, Station: 5}))
		rr := httptest.NewRecorder()

		h.CreateWithdrawal(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Internal server error", message(t, rr))
		assert.NotContains(t, rr.Body.String(), "connection reset")
		store.AssertExpectations(t)
	})
}

func TestQueues(t *testing.T) {
	s := newTestServer(t, nil)
	operator := s.login(t, "/login", "operator", operatorAddr)
	tellerOne := s.login(t, "/login", "teller", tellerOneAddr)
	tellerFour := s.login(t, "/login", "teller", tellerFourAddr)
	admin := s.login(t, "/admin-login", "admin", operatorAddr)

	for _, body := range []string{
		`{"AccountNumber":"1","Name":"Ana","TransactionType":"Voucher","Amount":10,"AccountType":"Savings"}`,
		`{"AccountNumber":"2","Name":"Ben","TransactionType":"Withdrawal","Amount":20,"AccountType":"Checking"}`,
		`{"AccountNumber":"3","Name":"Cai","TransactionType":"ATMCashDeposit","Amount":30,"AccountType":"Savings"}`,
	} {
		rr := s.do(t, http.MethodPost, "/create-transaction", operator, operatorAddr, body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	t.Run("Own Queue", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/queues/teller-4/transactions", tellerFour, tellerFourAddr, "")
		require.Equal(t, http.StatusOK, rr.Code)
		rows := decodeTransactions(t, rr)
		require.Len(t, rows, 2)
		for _, row := range rows {
			assert.Contains(t, []models.TransactionType{models.Voucher, models.ATMCashDeposit}, row.TransactionType)
		}
	})

	t.Run("Other Station", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/queues/teller-4/transactions", tellerOne, tellerOneAddr, "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Operator Queue", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/queues/my-queue/transactions", operator, operatorAddr, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeTransactions(t, rr), 1)
	})

	t.Run("Unknown Queue", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/queues/teller-9/transactions", admin, operatorAddr, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Queue not found", message(t, rr))
	})

	t.Run("Display Board", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/display-transactions", admin, operatorAddr, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeTransactions(t, rr), 3)

		rr = s.do(t, http.MethodGet, "/display-transactions", operator, operatorAddr, "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Empty Queue Is An Array", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/queues/teller-3/transactions", admin, operatorAddr, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"transactions":[]}`, rr.Body.String())
	})
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	operator := s.login(t, "/login", "operator", operatorAddr)
	teller := s.login(t, "/login", "teller", tellerOneAddr)

	rr := s.do(t, http.MethodPost, "/create-withdrawal", operator, operatorAddr,
		`{"AccountNumber":"55","Name":"Lito","Amount":900,"AccountType":"Checking"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created transactionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	path := func(prefix string) string {
		return prefix + "/" + jsonNumber(created.Transaction.ID)
	}

	t.Run("Correct While Open", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, path("/update-transaction"), operator, operatorAddr,
			`{"AccountNumber":"56","Name":"Lito Lapid","TransactionType":"Withdrawal","AccountType":"Savings"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Contains(t, rr.Body.String(), "Lito Lapid")
	})

	t.Run("Invalid Status", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, path("/update-transaction-status"), teller, tellerOneAddr, `{"Status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Pick Up", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, path("/update-transaction-status"), teller, tellerOneAddr, `{"Status":"In Progress"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp transactionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, models.StatusInProgress, resp.Transaction.Status)
	})

	t.Run("Correction After Pick Up", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, path("/update-transaction"), operator, operatorAddr,
			`{"AccountNumber":"56","Name":"Lito","TransactionType":"Withdrawal","AccountType":"Savings"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Bad Id", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-transaction-status/abc", teller, tellerOneAddr, `{"Status":"Closed"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, path("/delete-transaction"), operator, operatorAddr, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"DeleteStatus":1}`, rr.Body.String())

		rr = s.do(t, http.MethodPut, path("/update-transaction-status"), teller, tellerOneAddr, `{"Status":"Closed"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Transaction not found", message(t, rr))
	})
}

func TestCreateUser(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "/admin-login", "admin", operatorAddr)
	operator := s.login(t, "/login", "operator", operatorAddr)
	body := `{"Name":"Cara","LastName":"Diaz","Username":"teller3","Password":"pw-teller3","TellerNumber":"3"}`

	rr := s.do(t, http.MethodPost, "/create-user", operator, operatorAddr, body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, "/create-user", admin, operatorAddr, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "pw-teller3")

	rr = s.do(t, http.MethodPost, "/create-user", admin, operatorAddr, body)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodPost, "/create-user", admin, operatorAddr, `{"Name":"Cara","Username":"x","Password":"y"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Missing required fields", message(t, rr))
}

func TestUpdateUser(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.login(t, "/admin-login", "admin", operatorAddr)
	operator := s.login(t, "/login", "operator", operatorAddr)
	body := `{"Name":"Ana","LastName":"Cruz-Reyes","Username":"ana.cruz","Password":"pw-ana.cruz","TellerNumber":1}`

	t.Run("Administrators Only", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-user/1", operator, operatorAddr, body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-user/1", admin, operatorAddr, `{"Name":"Ana","Username":"ana.cruz","TellerNumber":1}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing required fields", message(t, rr))
	})

	t.Run("Bad Id", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-user/abc", admin, operatorAddr, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid user id", message(t, rr))
	})

	t.Run("Unknown User", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-user/99", admin, operatorAddr, body)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "User not found", message(t, rr))
	})

	t.Run("Taken Username", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-user/1", admin, operatorAddr,
			`{"Name":"Ana","LastName":"Cruz","Username":"operator","Password":"pw","TellerNumber":1}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Username already exists", message(t, rr))
	})

	t.Run("Success", func(t *testing.T) {
		rr := s.do(t, http.MethodPut, "/update-user/1", admin, operatorAddr, body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.NotContains(t, rr.Body.String(), "pw-ana.cruz")

		var resp struct {
			UpdatedUser models.User `json:"updatedUser"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.UpdatedUser.ID)
		assert.Equal(t, "Cruz-Reyes", resp.UpdatedUser.LastName)

		s.login(t, "/login", "ana.cruz", tellerOneAddr)

		rr = s.do(t, http.MethodPost, "/login", "", tellerOneAddr, `{"Username":"teller","Password":"pw-teller"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want flexString
	}{
		{`"12"`, "12"},
		{`12`, "12"},
		{`-4`, "-4"},
		{`12.5`, "12.5"},
		{`99999999999999999999`, "99999999999999999999"},
		{`null`, ""},
	}
	for _, tc := range tests {
		var f flexString
		require.NoError(t, json.Unmarshal([]byte(tc.in), &f), tc.in)
		assert.Equal(t, tc.want, f)
	}

	var f flexString
	assert.Error(t, json.Unmarshal([]byte(`true`), &f))
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
