package middleware

import "github.com/danielgtaylor/huma/v2"

// Container собирает цепочку middleware для очередного обработчика
type Container struct {
	items huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw ...func(huma.Context, func(huma.Context))) {
	c.items = append(c.items, mw...)
}

// GetAllAndClear отдает накопленную цепочку и очищает контейнер
func (c *Container) GetAllAndClear() huma.Middlewares {
	items := c.items
	c.items = nil
	if items == nil {
		return huma.Middlewares{}
	}
	return items
}
