package databases

import "go.mongodb.org/mongo-driver/mongo/options"

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	// page 0 and page 1 both mean the first page; mongo rejects a negative skip
	if skip < 0 {
		skip = 0
	}
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}
