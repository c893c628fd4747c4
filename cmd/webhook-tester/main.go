package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
)

// Payload shape must match what the gateway's webhook endpoint expects.
type webhookPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

func main() {
	// 1. Setting up flags
	targetURL := flag.String("target", "http://localhost:8080/webhooks/mercadopago", "Target URL for webhook deliveries")
	rps := flag.Int("rps", 5, "Requests per second")
	secret := flag.String("secret", "test-secret", "Webhook signing secret")
	tamper := flag.Bool("tamper", false, "Send deliberately broken signatures to exercise the rejection path")
	flag.Parse()

	log.Printf("Starting webhook tester: target=%s, rps=%d, tamper=%v\n", *targetURL, *rps, *tamper)

	// 2. Managing the request frequency via ticker
	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()

	// 3. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Main loop
	for {
		select {
		case <-ticker.C:
			go sendWebhook(*targetURL, *secret, *tamper)
		case <-ctx.Done():
			log.Println("Shutting down webhook tester...")
			return
		}
	}
}

func sendWebhook(url, secret string, tamper bool) {
	paymentID := fmt.Sprintf("%d", rand.Intn(90000000)+10000000)
	requestID := uuid.New().String()

	var payload webhookPayload
	payload.Type = "payment"
	payload.Action = "payment." + faker.Word()
	payload.Data.ID = paymentID

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to marshal payload: %v", err)
		return
	}

	ts := time.Now().Unix()
	signature := sign(secret, paymentID, requestID, ts)
	if tamper {
		signature = "deadbeef" + signature[8:]
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		log.Printf("ERROR: failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-request-id", requestID)
	req.Header.Set("x-signature", fmt.Sprintf("ts=%d,v1=%s", ts, signature))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("ERROR: failed to send request: %v", err)
		return
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	log.Printf("INFO: delivery %s sent, status: %d", requestID, resp.StatusCode)
}

// sign builds the same canonical manifest the gateway verifies.
func sign(secret, resourceID, requestID string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "id:%s;request-id:%s;ts:%d;", resourceID, requestID, ts)
	return hex.EncodeToString(mac.Sum(nil))
}
