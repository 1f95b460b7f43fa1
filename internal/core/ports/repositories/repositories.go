package repositories

// RepositoryProvider bundles all repository implementations for injection
// into the service container.
type RepositoryProvider struct {
	ExeatRepo ExeatRepositoryFacade
	UserRepo  UserRepository
}
