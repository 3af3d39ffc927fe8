package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTreatmentChart(t *testing.T) {
	h := &Handler{Visits: map[uint]Visit{
		7: {ID: 7, Patient: "Jane <Doe>", Drugs: []Drug{
			{Name: "Amoxicillin", Quantity: 2, Price: 12000},
			{Name: "Paracetamol", Quantity: 20, Price: 1500},
		}},
		8: {ID: 8, Patient: "John"},
	}}
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	get := func(path string) string {
		t.Helper()
		res, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		return string(body)
	}

	body := get("/visits/7/chart")
	for _, want := range []string{
		`<a href="/visits/7">Jane &lt;Doe&gt;</a> / <span>Treatment Chart</span>`,
		`<tr class="row low"><td>Amoxicillin</td><td>2</td><td>UGX 12,000</td></tr>`,
		`<tr class="row"><td>Paracetamol</td><td>20</td><td>UGX 1,500</td></tr>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("chart missing %q:\n%s", want, body)
		}
	}

	if body := get("/visits/8/chart"); !strings.Contains(body, `<p class="empty">No drugs billed.</p>`) {
		t.Errorf("empty chart:\n%s", body)
	}
	if body := get("/visits/9/chart"); body != `<p class="not-found">No visit 9</p>` {
		t.Errorf("missing visit = %q", body)
	}
}

func TestMoney(t *testing.T) {
	if _, err := money("12"); err == nil {
		t.Error("money accepted a string")
	}
	v, err := money(float64(1234567))
	if err != nil || v != "UGX 1,234,567" {
		t.Errorf("money = %v, %v", v, err)
	}
}
