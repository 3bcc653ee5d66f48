package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	apperrors "creatorclub/pkg/errors"
	apphttp "creatorclub/pkg/http"
	"creatorclub/pkg/logger"
)

const (
	SignatureHeader = "X-Signature-256"
	SignaturePrefix = "sha256="
)

// PaymentSignatureVerification admits only requests whose body carries a valid
// HMAC-SHA256 signature from the payment collaborator.
func PaymentSignatureVerification(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := extractSignature(r)

			if signature == "" {
				logAndReject(w, log, r, "Missing "+SignatureHeader+" header")
				return
			}

			body, err := readAndRestoreBody(r)
			if err != nil {
				logAndReject(w, log, r, "Failed to read request body")
				return
			}

			if !VerifySignature(body, signature, secret) {
				logAndReject(w, log, r, "Invalid payment signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(body []byte, receivedSignature string, secret string) bool {
	expected := SignPayload(body, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(receivedSignature)))
}

func extractSignature(r *http.Request) string {
	header := r.Header.Get(SignatureHeader)
	if signature, found := strings.CutPrefix(header, SignaturePrefix); found {
		return signature
	}
	return header
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

func logAndReject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Payment signature verification failed",
		"request_id", RequestIDFromContext(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	apphttp.WriteError(w, apperrors.Unauthenticated("Invalid payment signature"))
}
