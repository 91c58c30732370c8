package vectorstore

import "fmt"

// Key prefixes. A record key always embeds its collection, so prefix
// iteration is the isolation boundary.
const (
	collectionPrefix = "col"
	recordPrefix     = "vec"
)

func makeCollectionKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, collection))
}

func makeRecordPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, collection))
}

func makeRecordKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", recordPrefix, collection, id))
}
