package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

func sampleMessage() Message {
	return NewMessage(&domain.Target{
		ID:      "t9",
		Name:    "blog",
		Types:   []domain.CheckType{domain.CheckHTTP},
		Address: "https://blog.example.com",
	}, domain.StatusDown, "request timed out", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
}

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	err := Slack(context.Background(), map[string]string{"webhook_url": ts.URL}, sampleMessage())
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got == "" || got[0] != '*' { // starts with "*[❌ Down] blog*"
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	err := Slack(context.Background(), map[string]string{"webhook_url": ts.URL}, sampleMessage())
	if err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestSlack_MissingConfig(t *testing.T) {
	if err := Slack(context.Background(), map[string]string{}, sampleMessage()); err == nil {
		t.Fatal("expected error without webhook_url")
	}
}

func TestWebhook_PayloadShape(t *testing.T) {
	var got webhookPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	msg := sampleMessage()
	err := Webhook(context.Background(), map[string]string{"webhook_url": ts.URL}, msg)
	if err != nil {
		t.Fatalf("send err: %v", err)
	}

	if got.Title != msg.Title {
		t.Fatalf("title = %q", got.Title)
	}
	if got.Monitor.ID != "t9" || got.Monitor.Target != "https://blog.example.com" {
		t.Fatalf("monitor = %+v", got.Monitor)
	}
	if got.Status != domain.StatusDown || got.Message != "request timed out" {
		t.Fatalf("status/message = %v %q", got.Status, got.Message)
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Fatalf("timestamp %q: %v", got.Timestamp, err)
	}
}

func TestWebhook_StatusBoundary(t *testing.T) {
	var code int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	defer ts.Close()

	conf := map[string]string{"webhook_url": ts.URL}

	code = 399
	if err := Webhook(context.Background(), conf, sampleMessage()); err != nil {
		t.Fatalf("399 should count as delivered: %v", err)
	}
	code = 400
	if err := Webhook(context.Background(), conf, sampleMessage()); err == nil {
		t.Fatal("400 should be an error")
	}
}

func TestWeChat_MarkdownPayload(t *testing.T) {
	var got wechatPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	err := WeChat(context.Background(), map[string]string{"webhook_url": ts.URL}, sampleMessage())
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got.MsgType != "markdown" {
		t.Fatalf("msgtype = %q", got.MsgType)
	}
	if !strings.HasPrefix(got.Markdown.Content, "### ") {
		t.Fatalf("content = %q", got.Markdown.Content)
	}
}

func TestBark_PathCarriesTitleAndBody(t *testing.T) {
	var uri string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uri = r.RequestURI
		w.WriteHeader(200)
	}))
	defer ts.Close()

	msg := sampleMessage()
	err := Bark(context.Background(), map[string]string{
		"key":    "devicekey",
		"server": ts.URL,
	}, msg)
	if err != nil {
		t.Fatalf("send err: %v", err)
	}

	if !strings.HasPrefix(uri, "/devicekey/") {
		t.Fatalf("uri = %q", uri)
	}
	if !strings.Contains(uri, url.PathEscape(msg.Title)) {
		t.Fatalf("uri missing escaped title: %q", uri)
	}
}

func TestBark_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	err := Bark(context.Background(), map[string]string{"key": "k", "server": ts.URL}, sampleMessage())
	if err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestPushPlus_Payload(t *testing.T) {
	var got pushplusPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	old := pushplusURL
	pushplusURL = ts.URL
	defer func() { pushplusURL = old }()

	err := PushPlus(context.Background(), map[string]string{"token": "tok123"}, sampleMessage())
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got.Token != "tok123" || got.Template != "txt" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestServerChan_Form(t *testing.T) {
	var path, title, desp string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = r.ParseForm()
		title = r.PostForm.Get("title")
		desp = r.PostForm.Get("desp")
		w.WriteHeader(200)
	}))
	defer ts.Close()

	old := serverchanBase
	serverchanBase = ts.URL
	defer func() { serverchanBase = old }()

	msg := sampleMessage()
	err := ServerChan(context.Background(), map[string]string{"sendkey": "SCT123"}, msg)
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if path != "/SCT123.send" {
		t.Fatalf("path = %q", path)
	}
	if title != msg.Title || desp != msg.Content {
		t.Fatalf("form = %q / %q", title, desp)
	}
}

func TestTelegram_SendsViaServer(t *testing.T) {
	var path string
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":7}}}`))
	}))
	defer ts.Close()

	msg := sampleMessage()
	err := Telegram(context.Background(), map[string]string{
		"bot_token": "123:abc",
		"chat_id":   "7",
		"server":    ts.URL,
	}, msg)
	if err != nil {
		t.Fatalf("send err: %v", err)
	}

	if !strings.Contains(path, "sendMessage") {
		t.Fatalf("path = %q", path)
	}
	text, _ := body["text"].(string)
	if !strings.Contains(text, msg.Title) {
		t.Fatalf("text = %q", text)
	}
}

func TestTelegram_MissingConfig(t *testing.T) {
	err := Telegram(context.Background(), map[string]string{"bot_token": "x"}, sampleMessage())
	if err == nil {
		t.Fatal("expected error without chat_id")
	}
}

func TestEmail_MissingConfig(t *testing.T) {
	cases := []map[string]string{
		{},
		{"smtp_host": "mail.example.com"},
		{"smtp_host": "mail.example.com", "from_email": "a@b.c"},
	}
	for _, conf := range cases {
		if err := Email(context.Background(), conf, sampleMessage()); err == nil {
			t.Fatalf("expected error for config %v", conf)
		}
	}
}

func TestKafka_MissingConfig(t *testing.T) {
	err := Kafka(context.Background(), map[string]string{"topic": "alerts"}, sampleMessage())
	if err == nil {
		t.Fatal("expected error without brokers")
	}
}
