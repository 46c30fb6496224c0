package crawl

import "github.com/bwmarrin/snowflake"

// RunID returns a unique, time-ordered ID used to tag the log lines of one run.
func RunID() (string, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return "", err
	}
	return node.Generate().String(), nil
}
