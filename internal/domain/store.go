package domain

import "context"

// Store 聚合各仓储；Transaction 内的 tx 共享同一个数据库事务
type Store interface {
	Principals() PrincipalRepository
	Leads() LeadRepository
	Activities() ActivityRepository
	Properties() PropertyRepository
	Projects() ProjectRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// Models 自动迁移用
func Models() []any {
	return []any{&Principal{}, &RoleAssignment{}, &Lead{}, &LeadActivity{}, &Project{}, &Property{}}
}
