package storage

import (
	"fmt"
	"strings"
)

// likeEscaper экранирует спецсимволы LIKE во вводе пользователя
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereBuilder собирает WHERE из необязательных предикатов, объединённых через AND.
// Отсутствующий фильтр не добавляет ни предиката, ни аргумента.
type whereBuilder struct {
	clauses []string
	args    []any
}

// add добавляет предикат с одним аргументом; в expr плейсхолдер обозначается как ?
func (b *whereBuilder) add(expr string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, strings.Replace(expr, "?", fmt.Sprintf("$%d", len(b.args)), 1))
}

// contains добавляет регистронезависимый поиск подстроки, пустое значение игнорируется
func (b *whereBuilder) contains(column, value string) {
	if value == "" {
		return
	}
	b.add(column+" ILIKE ?", "%"+likeEscaper.Replace(value)+"%")
}

func (b *whereBuilder) String() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func (b *whereBuilder) Args() []any {
	return b.args
}
