package sample

type Address struct {
	City   string
	Street string
}

type Person struct {
	Name    string
	Address Address
}

type PersonDTO struct {
	Name string
	City string
}

// Account keeps its state unexported; access goes through methods.
type Account struct {
	email    string
	hasEmail bool
}

func (a *Account) GetEmail() string { return a.email }

func (a *Account) SetEmail(v string) {
	a.email = v
	a.hasEmail = true
}

func (a *Account) HasEmail() bool { return a.hasEmail }

// Order is immutable once built; construction goes through OrderBuilder.
type Order struct {
	id string
}

func (o Order) GetID() string { return o.id }

type OrderBuilder struct {
	id string
}

func NewOrderBuilder() *OrderBuilder { return &OrderBuilder{} }

func (b *OrderBuilder) SetID(v string) { b.id = v }

func (b *OrderBuilder) Build() Order { return Order{id: b.id} }
