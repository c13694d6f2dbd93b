// Package weibo talks to weibo.com: it fetches a post's status metadata and
// feed pages, and parses post ids out of permalinks.
//
// Example usage:
//
//	client := weibo.NewClient(cfg.Weibo, logger.GetLogger())
//
//	postID, err := weibo.ParsePostID("https://weibo.com/1234567890/Kx1aBcD")
//	post, err := client.FetchStatus(ctx, postID)
//	if err != nil {
//	    switch errors.TypeOf(err) {
//	    case errors.ErrorTypeTimeout:
//	    case errors.ErrorTypeDecode:
//	    }
//	}
//
//	created, err := post.CreatedAt()
//
// PostMetadata is a thin wrapper over the decoded JSON object. Fields are
// queried rather than mapped onto structs because the payload shape differs
// between post kinds.
package weibo
