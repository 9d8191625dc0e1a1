package judge

import "strings"

func prepareQuery(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimRight(query, "; \t\r\n")

	return query
}
