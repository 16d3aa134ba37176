package descriptor

// BuilderDescriptor describes how generated code obtains a mutable
// intermediate for an otherwise-immutable type and finalizes it. A builder is
// associated with exactly one built type: construct via CreationFunc, mutate
// through the builder type's write accessors, then call FinalizeMethod to get
// the built value.
type BuilderDescriptor struct {
	// BuildingType is the mutable intermediate, e.g. AddressBuilder.
	BuildingType *TypeDescriptor
	// BuiltType is the immutable result the builder produces.
	BuiltType *TypeDescriptor
	// CreationFunc creates the intermediate, e.g. "NewAddressBuilder".
	CreationFunc string
	// FinalizeMethod turns the intermediate into the built value, e.g. "Build".
	FinalizeMethod string
}
