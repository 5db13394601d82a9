package broker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arcadialabs-io/actionbridge/pkg/broker"
)

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		handler  http.HandlerFunc
		requests []*http.Request
		bodies   []map[string]interface{}
	)

	BeforeEach(func() {
		ctx = context.Background()
		requests = nil
		bodies = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests = append(requests, r)
			var body map[string]interface{}
			if r.Body != nil {
				_ = json.NewDecoder(r.Body).Decode(&body)
			}
			bodies = append(bodies, body)
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func() *broker.Client {
		return broker.NewClient(server.URL, "test-key", "5s")
	}

	Describe("Execute", func() {
		It("normalizes a successful response", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"successful": true,
					"data":       map[string]interface{}{"id": "evt_1"},
				})
			}

			result := newClient().Execute(ctx, "GOOGLECALENDAR_CREATE_EVENT", "ca_123", map[string]interface{}{
				"summary": "Sync",
			})
			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Successfully executed GOOGLECALENDAR_CREATE_EVENT"))
			Expect(result.Data).To(HaveKeyWithValue("id", "evt_1"))

			execBody := bodies[len(bodies)-1]
			Expect(execBody["connected_account_id"]).To(Equal("ca_123"))
			Expect(execBody["arguments"]).To(HaveKeyWithValue("summary", "Sync"))
		})

		It("includes the resolved owner as entity_id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					_ = json.NewEncoder(w).Encode(map[string]interface{}{"user_id": "user-42"})
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"successful": true})
			}

			result := newClient().Execute(ctx, "GMAIL_SEND_EMAIL", "ca_123", nil)
			Expect(result.Success).To(BeTrue())

			execBody := bodies[len(bodies)-1]
			Expect(execBody["entity_id"]).To(Equal("user-42"))
		})

		It("proceeds without an owner when resolution fails", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"successful": true})
			}

			result := newClient().Execute(ctx, "GMAIL_SEND_EMAIL", "ca_123", nil)
			Expect(result.Success).To(BeTrue())

			execBody := bodies[len(bodies)-1]
			Expect(execBody).ToNot(HaveKey("entity_id"))
		})

		It("treats successful=false as failure", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"successful": false,
					"message":    "insufficient scopes",
				})
			}

			result := newClient().Execute(ctx, "GMAIL_SEND_EMAIL", "ca_123", nil)
			Expect(result.Success).To(BeFalse())
			Expect(result.Message).To(Equal("Failed to execute GMAIL_SEND_EMAIL: insufficient scopes"))
		})

		It("treats non-2xx as failure and digs out the nested error", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				w.WriteHeader(http.StatusBadGateway)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{
						"message": map[string]interface{}{"detail": "upstream quota exceeded"},
					},
				})
			}

			result := newClient().Execute(ctx, "GMAIL_SEND_EMAIL", "ca_123", nil)
			Expect(result.Success).To(BeFalse())
			Expect(result.Message).To(ContainSubstring("upstream quota exceeded"))
		})

		It("treats an error field in a 200 response as failure", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": "token revoked",
				})
			}

			result := newClient().Execute(ctx, "GMAIL_SEND_EMAIL", "ca_123", nil)
			Expect(result.Success).To(BeFalse())
			Expect(result.Message).To(ContainSubstring("token revoked"))
		})

		It("fails when the broker is unreachable", func() {
			server.Close()

			result := newClient().Execute(ctx, "GMAIL_SEND_EMAIL", "ca_123", nil)
			Expect(result.Success).To(BeFalse())
			Expect(result.Message).To(HavePrefix("Failed to execute GMAIL_SEND_EMAIL"))
		})
	})

	Describe("ResolveOwner", func() {
		It("returns the owning user id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"id":      "ca_123",
					"status":  "ACTIVE",
					"user_id": "user-42",
				})
			}

			owner, ok := newClient().ResolveOwner(ctx, "ca_123")
			Expect(ok).To(BeTrue())
			Expect(owner).To(Equal("user-42"))
			Expect(requests[0].Header.Get("x-api-key")).To(Equal("test-key"))
		})

		It("soft-fails on missing user id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "ca_123"})
			}

			_, ok := newClient().ResolveOwner(ctx, "ca_123")
			Expect(ok).To(BeFalse())
		})
	})
})
