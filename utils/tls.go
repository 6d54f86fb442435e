package utils

import (
	"fmt"
	"io"
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/fhttp/http2"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	tls "github.com/bogdanfinn/utls"
	"github.com/labstack/echo/v4"
)

const (
	Chrome136UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"
	Chrome136Brands    = `"Chromium";v="136", "Google Chrome";v="136", "Not.A/Brand";v="99"`
)

func GetChrome136Profile() (profiles.ClientProfile, error) {
	ja3 := "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17613-65037,4588-29-23-24,0"

	signatureAlgorithms := []string{
		"ECDSAWithP256AndSHA256",
		"PSSWithSHA256",
		"PKCS1WithSHA256",
		"ECDSAWithP384AndSHA384",
		"PSSWithSHA384",
		"PKCS1WithSHA384",
		"PSSWithSHA512",
		"PKCS1WithSHA512",
	}
	supportedVersions := []string{"GREASE", "1.3", "1.2"}
	supportedGroups := []string{"GREASE", "X25519", "secp256r1", "secp384r1"}

	alpnProtocols := []string{"h2", "http/1.1"}
	alpsProtocols := []string{"h2"}

	cipherSuites := []tls_client.CandidateCipherSuites{
		{KdfId: "HKDF_SHA256", AeadId: "AEAD_AES_128_GCM"},
		{KdfId: "HKDF_SHA256", AeadId: "AEAD_AES_256_GCM"},
		{KdfId: "HKDF_SHA256", AeadId: "AEAD_CHACHA20_POLY1305"},
	}

	curvePriorities := []uint16{128, 160, 192, 224}

	specFunc, err := tls_client.GetSpecFactoryFromJa3String(
		ja3, signatureAlgorithms, signatureAlgorithms, supportedVersions,
		supportedGroups, alpnProtocols, alpsProtocols, cipherSuites, curvePriorities, "brotli",
	)
	if err != nil {
		return profiles.ClientProfile{}, fmt.Errorf("failed to build chrome136 tls spec: %w", err)
	}

	settings := map[http2.SettingID]uint32{
		http2.SettingHeaderTableSize:   65536,
		http2.SettingEnablePush:        0,
		http2.SettingInitialWindowSize: 6291456,
		http2.SettingMaxHeaderListSize: 262144,
	}
	settingsOrder := []http2.SettingID{
		http2.SettingHeaderTableSize,
		http2.SettingEnablePush,
		http2.SettingInitialWindowSize,
		http2.SettingMaxHeaderListSize,
	}

	pseudoHeaderOrder := []string{
		":method",
		":authority",
		":scheme",
		":path",
	}

	return profiles.NewClientProfile(
		tls.ClientHelloID{
			Client:      "Chrome",
			Version:     "136",
			Seed:        nil,
			SpecFactory: specFunc,
		},
		settings,
		settingsOrder,
		pseudoHeaderOrder,
		uint32(15663105),
		nil,
		nil,
	), nil
}

func NewChrome136Client(proxy string, timeoutSeconds int) (tls_client.HttpClient, error) {
	profile, err := GetChrome136Profile()
	if err != nil {
		Log.Warnf("Falling back to built-in Chrome_133 profile: %v", err)
		profile = profiles.Chrome_133
	}

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profile),
		tls_client.WithCookieJar(jar),
		tls_client.WithRandomTLSExtensionOrder(),
	}
	if proxy != "" {
		options = append(options, tls_client.WithProxyUrl(proxy))
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// BrowserFetcher issues script GETs that look like a Chrome 136 tab
// loading a bundle.
type BrowserFetcher struct {
	Client  tls_client.HttpClient
	Referer string
}

func NewBrowserFetcher(cfg Config) (*BrowserFetcher, error) {
	client, err := NewChrome136Client(cfg.Proxy, cfg.TimeoutSeconds)
	if err != nil {
		return nil, err
	}
	return &BrowserFetcher{Client: client, Referer: cfg.Site + "/"}, nil
}

func (f *BrowserFetcher) Get(url string) (string, error) {
	req, err := fhttp.NewRequest("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create GET request for %s: %w", url, err)
	}

	req.Header = fhttp.Header{
		"sec-ch-ua-platform": {`"Windows"`},
		"user-agent":         {Chrome136UserAgent},
		"sec-ch-ua":          {Chrome136Brands},
		"sec-ch-ua-mobile":   {"?0"},
		"accept":             {"*/*"},
		"sec-fetch-site":     {"same-origin"},
		"sec-fetch-mode":     {"no-cors"},
		"sec-fetch-dest":     {"script"},
		"referer":            {f.Referer},
		"accept-encoding":    {"gzip, deflate, br, zstd"},
		"accept-language":    {"en-US,en;q=0.9"},
		fhttp.HeaderOrderKey: {
			"sec-ch-ua-platform",
			"user-agent",
			"sec-ch-ua",
			"sec-ch-ua-mobile",
			"accept",
			"sec-fetch-site",
			"sec-fetch-mode",
			"sec-fetch-dest",
			"referer",
			"accept-encoding",
			"accept-language",
			"cookie",
		},
		fhttp.PHeaderOrderKey: {":method", ":authority", ":scheme", ":path"},
	}

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxy error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned non-200 status code: %d", url, resp.StatusCode)
	}

	Log.WithField("url", url).WithField("bytes", len(body)).Debugf("fetched in %s", time.Since(start))
	return string(body), nil
}

// QueryTLSApiRoute reports the fingerprint the impersonating client presents.
func (f *BrowserFetcher) QueryTLSApiRoute(c echo.Context) error {
	body, err := f.Get("https://tls.peet.ws/api/all")
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]interface{}{"success": false, "error": err.Error()})
	}
	return c.JSONBlob(http.StatusOK, []byte(body))
}
