package sample

//go:mapgen:mapper
type PersonMapper interface {
	//go:mapgen:map="target=City,source=Address.City"
	Map(p Person) PersonDTO
}

//go:mapgen:mapper
type AccountMapper interface {
	Copy(src *Account) (*Account, error)
}

// Unrelated carries no directives and must not be discovered.
type Unrelated interface {
	Other() string
}
