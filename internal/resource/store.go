package resource

import "context"

// Store es el puerto de persistencia de un recurso.
// Las implementaciones garantizan:
//   - ids enteros crecientes que nunca se reutilizan (ni tras un delete)
//   - Find devuelve en orden de inserción
//   - Update/Remove ejecutan el callback y la escritura de forma atómica
//
// Si el id no existe devuelven ErrNotFound. Errores del callback se propagan tal cual.
type Store[T any] interface {
	Find(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Insert(ctx context.Context, build func(id int64) (T, error)) (T, error)
	Update(ctx context.Context, id int64, mutate func(cur T) (T, error)) (T, error)
	Remove(ctx context.Context, id int64, guard func(cur T) error) error
}
