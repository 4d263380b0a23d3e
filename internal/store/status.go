// Package store содержит клиентские хранилища состояния бургерной:
// каталог ингредиентов, конструктор бургера, общую ленту заказов,
// поиск заказа по номеру и сессию пользователя.
package store

// Status описывает фазу асинхронного запроса хранилища.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusDone
	StatusFailed
)

// requestState хранит фазу запроса и сообщение последней ошибки.
// Сообщение непусто только в фазе StatusFailed, поэтому сочетание
// «загрузка с ошибкой» непредставимо.
type requestState struct {
	status  Status
	lastErr string
}

func (r *requestState) begin() {
	r.status = StatusLoading
	r.lastErr = ""
}

func (r *requestState) succeed() {
	r.status = StatusDone
	r.lastErr = ""
}

func (r *requestState) fail(msg string) {
	r.status = StatusFailed
	r.lastErr = msg
}

func (r requestState) loading() bool {
	return r.status == StatusLoading
}
