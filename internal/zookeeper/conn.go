// Package zookeeper provides the distributed lock the stock guard can
// take around reserve/release when more than one shop instance mutates
// the same product rows.
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn is a thin wrapper so the rest of the code does not import the
// zk package directly.
type Conn struct {
	*zk.Conn
}

func Connect(hosts []string) (*Conn, error) {
	conn, _, err := zk.Connect(hosts, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}
