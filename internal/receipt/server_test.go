package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

const targetJSON = `{
  "retailer": "Target",
  "purchaseDate": "2022-01-01",
  "purchaseTime": "13:01",
  "items": [
    {"shortDescription": "Mountain Dew 12PK", "price": "6.49"},
    {"shortDescription": "Emils Cheese Pizza", "price": "12.25"},
    {"shortDescription": "Knorr Creamy Chicken", "price": "1.26"},
    {"shortDescription": "Doritos Nacho Cheese", "price": "3.35"},
    {"shortDescription": "   Klarbrunn 12-PK 12 FL OZ  ", "price": "12.00"}
  ],
  "total": "35.35"
}`

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	post := func(body string) *http.Response {
		resp, err := http.Post(ghttpServer.URL()+"/receipts/process", "application/json", strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response) map[string]any {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		var out map[string]any
		Expect(json.Unmarshal(body, &out)).To(Succeed())
		return out
	}

	BeforeEach(func() {
		db = newMockDB()
		service = NewServiceWithDeps(db, &mockIDGenerator{ids: []string{"id-1", "id-2"}})
		server = NewServerWithMux(service, http.NewServeMux())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleProcessReceipt", func() {
		When("the receipt is valid", func() {
			It("should return status OK", func() {
				resp := post(targetJSON)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the receipt ID", func() {
				Expect(decode(post(targetJSON))).To(Equal(map[string]any{"id": "id-1"}))
			})

			It("should set Content-Type to application/json", func() {
				resp := post(targetJSON)
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})

			It("should store the points", func() {
				post(targetJSON).Body.Close()
				Expect(db.points).To(HaveKeyWithValue("id-1", 28))
			})
		})

		When("a required field is missing", func() {
			var body string

			BeforeEach(func() {
				body = `{"retailer": "Target", "purchaseDate": "2022-01-01", "purchaseTime": "13:01", "items": []}`
			})

			It("should return status Bad Request", func() {
				resp := post(body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should return a generic error message", func() {
				Expect(decode(post(body))).To(Equal(map[string]any{"error": "Invalid receipt"}))
			})

			It("should not store anything", func() {
				post(body).Body.Close()
				Expect(db.saves).To(BeZero())
			})
		})

		When("a required field is null", func() {
			It("should return status Bad Request", func() {
				resp := post(`{"retailer": null, "purchaseDate": "2022-01-01", "purchaseTime": "13:01", "items": [], "total": "1.00"}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("the body is not valid JSON", func() {
			It("should return status Bad Request", func() {
				resp := post(`{"retailer": `)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should return a generic error message", func() {
				Expect(decode(post(`not json`))).To(Equal(map[string]any{"error": "Invalid receipt"}))
			})
		})

		When("the receipt is followed by trailing data", func() {
			var body string

			BeforeEach(func() {
				body = targetJSON + ` garbage`
			})

			It("should return status Bad Request", func() {
				resp := post(body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should return a generic error message", func() {
				Expect(decode(post(body))).To(Equal(map[string]any{"error": "Invalid receipt"}))
			})

			It("should not store anything", func() {
				post(body).Body.Close()
				Expect(db.saves).To(BeZero())
			})
		})

		When("the receipt is followed by a second object", func() {
			It("should return status Bad Request", func() {
				resp := post(targetJSON + targetJSON)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
				Expect(db.saves).To(BeZero())
			})
		})

		When("the receipt is followed by whitespace", func() {
			It("should return status OK", func() {
				resp := post(targetJSON + "\n\n  ")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})
		})

		When("a field has the wrong JSON type", func() {
			It("should return status Bad Request", func() {
				resp := post(`{"retailer": "Target", "purchaseDate": "2022-01-01", "purchaseTime": "13:01", "items": [], "total": 35.35}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})

		When("a field is malformed", func() {
			var body string

			BeforeEach(func() {
				body = strings.Replace(targetJSON, `"total": "35.35"`, `"total": "thirty"`, 1)
			})

			It("should return status Bad Request", func() {
				resp := post(body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})

			It("should describe the malformed field", func() {
				out := decode(post(body))
				Expect(out).To(HaveKeyWithValue("error", "Invalid receipt"))
				Expect(out).To(HaveKeyWithValue("error_description", ContainSubstring(`total: invalid value "thirty"`)))
			})
		})

		When("the body is too large", func() {
			It("should return status Bad Request", func() {
				padding := strings.Repeat(" ", maxBodySize)
				req := httptest.NewRequest(http.MethodPost, "/receipts/process", strings.NewReader(padding+targetJSON))
				rec := httptest.NewRecorder()
				server.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(db.saves).To(BeZero())
			})
		})

		When("the store fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("store unavailable")
			})

			It("should return status Internal Server Error", func() {
				resp := post(targetJSON)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})

			It("should not leak the cause", func() {
				Expect(decode(post(targetJSON))).To(Equal(map[string]any{"error": "Internal server error"}))
			})
		})

		When("request method is not POST", func() {
			It("should return status Method Not Allowed", func() {
				resp, err := http.Get(ghttpServer.URL() + "/receipts/process")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetPoints", func() {
		When("the receipt exists", func() {
			BeforeEach(func() {
				db.points["abc-123"] = 109
			})

			It("should return status OK", func() {
				resp, err := http.Get(ghttpServer.URL() + "/receipts/abc-123/points")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				resp.Body.Close()
			})

			It("should return the points", func() {
				resp, err := http.Get(ghttpServer.URL() + "/receipts/abc-123/points")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				var out map[string]int
				Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
				Expect(out).To(Equal(map[string]int{"points": 109}))
			})
		})

		When("the receipt does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/receipts/nope/points")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})

			It("should return an error message", func() {
				resp, err := http.Get(ghttpServer.URL() + "/receipts/nope/points")
				Expect(err).NotTo(HaveOccurred())
				Expect(decode(resp)).To(Equal(map[string]any{"error": "Receipt not found"}))
			})
		})

		When("the store fails", func() {
			BeforeEach(func() {
				db.getErr = errors.New("store unavailable")
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/receipts/abc/points")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})

		When("a receipt was processed first", func() {
			It("should return the points it scored", func() {
				ghttpServer.AppendHandlers(server.ServeHTTP)

				Expect(decode(post(targetJSON))).To(HaveKeyWithValue("id", "id-1"))

				resp, err := http.Get(ghttpServer.URL() + "/receipts/id-1/points")
				Expect(err).NotTo(HaveOccurred())
				Expect(decode(resp)).To(Equal(map[string]any{"points": float64(28)}))
			})
		})
	})

	Describe("CORS", func() {
		When("a preflight request is made", func() {
			It("should return status No Content", func() {
				req, err := http.NewRequest(http.MethodOptions, ghttpServer.URL()+"/receipts/process", nil)
				Expect(err).NotTo(HaveOccurred())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
				Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(Equal("GET, POST, OPTIONS"))
				resp.Body.Close()
			})
		})

		It("should set CORS headers on responses", func() {
			resp := post(targetJSON)
			defer resp.Body.Close()
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("unknown routes", func() {
		It("should return status Not Found", func() {
			resp, err := http.Post(ghttpServer.URL()+"/receipts", "application/json", bytes.NewBufferString(targetJSON))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			resp.Body.Close()
		})
	})
})
