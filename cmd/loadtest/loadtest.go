// Command loadtest exercises the hot path against a running server:
// two accounts sign up, open a conversation, one listens on the event
// stream while the other sends messages.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	baseURL  = flag.String("url", "http://localhost:8080", "server base URL")
	messages = flag.Int("n", 20, "messages to send")
)

type client struct {
	http *http.Client
	name string
}

func newClient(name string) *client {
	jar, _ := cookiejar.New(nil)
	return &client{
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		name: name,
	}
}

func (c *client) signupAndLogin() error {
	email := c.name + "@loadtest.invalid"
	password := "loadtest-password-1"

	form := url.Values{
		"username":         {c.name},
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	}
	res, err := c.http.PostForm(*baseURL+"/account/signup", form)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	res.Body.Close()

	form = url.Values{"email": {email}, "password": {password}}
	res, err = c.http.PostForm(*baseURL+"/account/login", form)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("login: unexpected status %d", res.StatusCode)
	}
	return nil
}

// userID decodes the subject claim out of the jwt cookie. No signature
// check; this is our own token and we only need the ID.
func (c *client) userID() (string, error) {
	u, _ := url.Parse(*baseURL)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name != "jwt" {
			continue
		}
		parts := strings.Split(ck.Value, ".")
		if len(parts) != 3 {
			return "", fmt.Errorf("malformed jwt cookie")
		}
		raw, err := base64.RawURLEncoding.DecodeString(parts[1])
		if err != nil {
			return "", fmt.Errorf("decode jwt claims: %w", err)
		}
		var claims struct {
			Sub string `json:"sub"`
		}
		if err := json.Unmarshal(raw, &claims); err != nil {
			return "", fmt.Errorf("parse jwt claims: %w", err)
		}
		return claims.Sub, nil
	}
	return "", fmt.Errorf("no jwt cookie in jar")
}

func (c *client) startConversation(peerID string) (string, error) {
	form := url.Values{"peer": {peerID}}
	res, err := c.http.PostForm(*baseURL+"/conversations", form)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	redirect := res.Header.Get("HX-Redirect")
	if redirect == "" {
		return "", fmt.Errorf("no HX-Redirect in response, status %d", res.StatusCode)
	}
	return strings.TrimPrefix(redirect, "/conversations/"), nil
}

func (c *client) send(conversationID, content string) error {
	form := url.Values{
		"conversationId": {conversationID},
		"content":        {content},
		"clientToken":    {uuid.NewString()},
	}
	res, err := c.http.PostForm(*baseURL+"/messages", form)
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		return fmt.Errorf("send: unexpected status %d", res.StatusCode)
	}
	return nil
}

// listen reads SSE frames and counts new_message events until ctx ends.
func (c *client) listen(ctx context.Context, conversationID string, got chan<- struct{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		*baseURL+"/sse?conversation="+conversationID, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event: new_message") {
			got <- struct{}{}
		}
	}
	return scanner.Err()
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	suffix := fmt.Sprintf("%06d", rand.Intn(1_000_000))
	sender := newClient("loadtest-sender-" + suffix)
	receiver := newClient("loadtest-receiver-" + suffix)

	for _, c := range []*client{sender, receiver} {
		if err := c.signupAndLogin(); err != nil {
			log.Fatalf("%s: %v", c.name, err)
		}
	}

	peerID, err := receiver.userID()
	if err != nil {
		log.Fatalf("receiver user ID: %v", err)
	}

	conversationID, err := sender.startConversation(peerID)
	if err != nil {
		log.Fatalf("start conversation: %v", err)
	}
	log.Printf("conversation %s", conversationID)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	got := make(chan struct{}, *messages)
	go func() {
		if err := receiver.listen(ctx, conversationID, got); err != nil && ctx.Err() == nil {
			log.Printf("listen: %v", err)
		}
	}()

	// Give the stream a moment to register.
	time.Sleep(500 * time.Millisecond)

	start := time.Now()
	for i := range *messages {
		if err := sender.send(conversationID, fmt.Sprintf("message %d", i)); err != nil {
			log.Fatalf("send %d: %v", i, err)
		}
	}

	received := 0
	for received < *messages {
		select {
		case <-got:
			received++
		case <-ctx.Done():
			log.Fatalf("timed out after receiving %d/%d messages", received, *messages)
		}
	}

	log.Printf("sent and received %d messages in %s", *messages, time.Since(start))
}
