package database

import (
	"net/url"
	"strings"
)

// escaped user info for connection URLs, nil without a user
func userInfo(user, password string) *url.Userinfo {
	if user == "" {
		return nil
	}
	return url.UserPassword(user, password)
}

// quote each dot separated part of a possibly schema qualified identifier
func quoteQualified(identifier string, quote func(string) string) string {
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		parts[i] = quote(part)
	}
	return strings.Join(parts, ".")
}

func quoteMySQLIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// builds one multi-row INSERT with ? placeholders
func buildMySQLInsert(table string, columns []string, data [][]interface{}) (string, []interface{}) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteMySQLIdentifier(col)
	}

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteQualified(table, quoteMySQLIdentifier))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(columns)*len(data))
	for i, row := range data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
		args = append(args, row...)
	}
	return sb.String(), args
}
