package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Monitor name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Name is required.")
		return
	}

	fmt.Print("Site URL to monitor (e.g., https://example.com): ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Println("Invalid URL.")
		return
	}

	fmt.Print("Check types, comma-separated [http]: ")
	typesRaw, _ := reader.ReadString('\n')
	typesRaw = strings.TrimSpace(typesRaw)
	if typesRaw == "" {
		typesRaw = "http"
	}
	var types []string
	for _, t := range strings.Split(typesRaw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}

	body, _ := json.Marshal(map[string]any{
		"name":   name,
		"types":  types,
		"target": raw,
	})
	resp, err := http.Post(api+"/api/monitors", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		fmt.Printf("API returned %s: %s\n", resp.Status, apiErr.Error)
		return
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		fmt.Println("Added, but could not read the response:", err)
		return
	}
	fmt.Printf("Added! Monitor %s is being checked now; see GET %s/api/monitors.\n", created.ID, api)
}
