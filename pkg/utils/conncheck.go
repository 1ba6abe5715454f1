package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/f1data/telemetry-service/log"
)

func WaitForTCP(addr string, timeout time.Duration) error {
	timeoutReached := time.Now().Add(timeout)
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for time.Now().Before(timeoutReached) {
		conn, err := d.DialContext(context.Background(), "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("%s could not be reached after %v", addr, timeout)
}

var defaultPorts = map[string]string{
	"postgresql": "5432",
	"postgres":   "5432",
	"mongodb":    "27017",
}

// ExtractFromDBURL returns host:port of a postgres or mongodb url.
// An empty string is returned for other urls (e.g. mongodb+srv).
func ExtractFromDBURL(url string) string {
	param := resolveRegex(
		"^(?P<proto>postgresql|postgres|mongodb)://(.*@)?(?P<addr>(?P<host>[^:/?,]*)(:(?P<port>\\d+))?)(/.*)?$", url)
	if len(param) == 0 || param["host"] == "" {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	}
	return fmt.Sprintf("%s:%s", param["host"], defaultPorts[param["proto"]])
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)
	if match == nil {
		return nil
	}

	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && i <= len(match) {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
