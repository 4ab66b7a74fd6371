//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/server"
)

const (
	serverPort    = 18080
	adminEmail    = "admin@ecommerce.com"
	adminPassword = "Admin@123"
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestAuthLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	email := fmt.Sprintf("buyer_%d@example.com", suffix)
	phone := fmt.Sprintf("1555%09d", suffix%1_000_000_000)
	password := "testpass123!"

	if status, _ := register(t, baseURL, email, phone, password); status != http.StatusCreated {
		t.Fatalf("register status: %d", status)
	}
	if status, _ := register(t, baseURL, email, phone, password); status != http.StatusConflict {
		t.Fatalf("duplicate register status: %d", status)
	}
	if status, _ := register(t, baseURL, adminEmail, "10000000000", password); status != http.StatusForbidden {
		t.Fatalf("admin-email register status: %d", status)
	}

	client := newCookieClient(t)
	accessToken, err := login(t, client, baseURL, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	profile, err := me(t, baseURL, accessToken)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if profile.Email != email || profile.Role != "user" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// The cookie jar carries the refresh cookie set at login.
	refreshed, err := refresh(t, client, baseURL)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := me(t, baseURL, refreshed); err != nil {
		t.Fatalf("me with refreshed token: %v", err)
	}

	adminClient := newCookieClient(t)
	adminToken, err := login(t, adminClient, baseURL, adminEmail, adminPassword)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	adminProfile, err := me(t, baseURL, adminToken)
	if err != nil {
		t.Fatalf("admin me: %v", err)
	}
	if adminProfile.Role != "admin" {
		t.Fatalf("expected admin role, got %q", adminProfile.Role)
	}

	users, err := listUsers(t, baseURL, adminToken)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if users == 0 {
		t.Fatalf("expected at least one stored user")
	}
}

func TestProductAndCartLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	adminClient := newCookieClient(t)
	adminToken, err := login(t, adminClient, baseURL, adminEmail, adminPassword)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}

	product, err := createProduct(t, baseURL, adminToken, fmt.Sprintf("Test Keyboard %d", suffix))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.ID == 0 {
		t.Fatalf("expected product id to be set")
	}

	fetched, err := getProduct(t, baseURL, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if fetched.ID != product.ID {
		t.Fatalf("unexpected product id: %d", fetched.ID)
	}

	email := fmt.Sprintf("shopper_%d@example.com", suffix)
	phone := fmt.Sprintf("1666%09d", suffix%1_000_000_000)
	if status, _ := register(t, baseURL, email, phone, "testpass123!"); status != http.StatusCreated {
		t.Fatalf("register shopper failed")
	}
	client := newCookieClient(t)
	userToken, err := login(t, client, baseURL, email, "testpass123!")
	if err != nil {
		t.Fatalf("shopper login: %v", err)
	}

	if err := addToCart(t, baseURL, userToken, product.ID, 2); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if err := checkout(t, baseURL, userToken); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	after, err := getProduct(t, baseURL, product.ID)
	if err != nil {
		t.Fatalf("get product after checkout: %v", err)
	}
	if after.Stock != fetched.Stock-2 {
		t.Fatalf("expected stock %d, got %d", fetched.Stock-2, after.Stock)
	}

	if err := deleteProduct(t, baseURL, adminToken, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if err := expectProductNotFound(t, baseURL, product.ID); err != nil {
		t.Fatalf("expected deleted product to be missing: %v", err)
	}
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type productResponse struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func register(t *testing.T, baseURL, email, phone, password string) (int, error) {
	t.Helper()

	payload := map[string]string{
		"username":    strings.SplitN(email, "@", 2)[0],
		"email":       email,
		"phonenumber": phone,
		"password":    password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	resp, err := http.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) (string, error) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("missing access token in login response")
	}
	return parsed.AccessToken, nil
}

func refresh(t *testing.T, client *http.Client, baseURL string) (string, error) {
	t.Helper()

	resp, err := client.Post(baseURL+"/auth/refresh", "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("refresh status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.AccessToken, nil
}

func me(t *testing.T, baseURL, token string) (profileResponse, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/auth/me", nil)
	if err != nil {
		return profileResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return profileResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return profileResponse{}, fmt.Errorf("me status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return profileResponse{}, err
	}
	return parsed, nil
}

func listUsers(t *testing.T, baseURL, token string) (int, error) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/auth/admin/users", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("list users status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.Count, nil
}

func createProduct(t *testing.T, baseURL, token, title string) (productResponse, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("title", title)
	_ = writer.WriteField("description", "A mechanical keyboard for end-to-end testing.")
	_ = writer.WriteField("price", "149.99")
	_ = writer.WriteField("stock", "10")
	_ = writer.WriteField("category", "peripherals")

	part, err := writer.CreateFormFile("image", "keyboard.png")
	if err != nil {
		return productResponse{}, err
	}
	if _, err := part.Write([]byte("not-really-a-png")); err != nil {
		return productResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return productResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/products", &body)
	if err != nil {
		return productResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return productResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return productResponse{}, fmt.Errorf("create product status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed productResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return productResponse{}, err
	}
	return parsed, nil
}

func getProduct(t *testing.T, baseURL string, id int) (productResponse, error) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/products/%d", baseURL, id))
	if err != nil {
		return productResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return productResponse{}, fmt.Errorf("get product status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed productResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return productResponse{}, err
	}
	return parsed, nil
}

func deleteProduct(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/products/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete product status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectProductNotFound(t *testing.T, baseURL string, id int) error {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/products/%d", baseURL, id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func addToCart(t *testing.T, baseURL, token string, productID, quantity int) error {
	t.Helper()

	body, err := json.Marshal(map[string]int{"productId": productID, "quantity": quantity})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/cart/items", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("add to cart status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func checkout(t *testing.T, baseURL, token string) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/cart/checkout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("checkout status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := buildPostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func buildPostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}
	host := fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		host,
		cfg.Database.DBName,
		sslmode,
	)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_ACCESS_SECRET", "test-access-secret")
	_ = os.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "storefront")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "storefront_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "storefront")
	// Delivery endpoints point nowhere reachable; registration swallows
	// send failures, which is exactly the behavior under test.
	_ = os.Setenv("SMS_GATEWAY_URL", "http://localhost:1/sms")
	_ = os.Setenv("SMTP_HOST", "localhost")
	_ = os.Setenv("SMTP_PORT", "1")
	_ = os.Setenv("ADMIN_EMAIL", adminEmail)
	_ = os.Setenv("ADMIN_PASSWORD", adminPassword)

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
