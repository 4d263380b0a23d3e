package store

// Client объединяет контракты всех хранилищ. Ему удовлетворяет api.Client.
type Client interface {
	CatalogClient
	OrderClient
	FeedClient
	LookupClient
	UserClient
}

// Root объединяет пять хранилищ приложения под фиксированными именами.
// Собственной логики не имеет, служит единственным источником состояния
// для слоя UI.
type Root struct {
	Catalog     *Catalog
	Constructor *Constructor
	Feed        *Feed
	Lookup      *Lookup
	User        *User
}

// NewRoot создаёт корневое хранилище, все части которого работают через
// общий клиент API.
func NewRoot(client Client) *Root {
	return &Root{
		Catalog:     NewCatalog(client),
		Constructor: NewConstructor(client),
		Feed:        NewFeed(client),
		Lookup:      NewLookup(client),
		User:        NewUser(client),
	}
}
