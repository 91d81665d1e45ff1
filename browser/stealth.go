package browser

import "math/rand"

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var launchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
}

const initScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
window.chrome = { runtime: {} };
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
`

type profile struct {
	userAgent string
	width     int
	height    int
}

func randomProfile(agents []string) profile {
	return profile{
		userAgent: agents[rand.Intn(len(agents))],
		width:     1366 + rand.Intn(1920-1366+1),
		height:    768 + rand.Intn(1080-768+1),
	}
}
