package repository

import (
	"net/url"
	"strings"
)

// ToURLDSN converts a lib/pq key=value DSN into postgres:// URL form.
// URL DSNs and DSNs missing host, user or dbname are returned unchanged.
func ToURLDSN(dsn string) string {
	s := strings.Trim(strings.TrimSpace(dsn), "\"'")
	lower := strings.ToLower(s)
	if s == "" || strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	kv := map[string]string{}
	for _, part := range strings.Fields(s) {
		pair := strings.SplitN(part, "=", 2)
		if len(pair) == 2 {
			kv[strings.ToLower(pair[0])] = strings.Trim(pair[1], "'")
		}
	}
	host, user, dbname := kv["host"], kv["user"], kv["dbname"]
	if host == "" || user == "" || dbname == "" {
		return s
	}
	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + dbname}
	if port := kv["port"]; port != "" {
		u.Host = host + ":" + port
	}
	if pass := kv["password"]; pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	if sslmode, ok := kv["sslmode"]; ok {
		q.Set("sslmode", sslmode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
