package model

type Section struct {
	ID         string `json:"id"`
	PlotID     string `json:"plot_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	OrderIndex int    `json:"order_index"`
	Version    int    `json:"version"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}
