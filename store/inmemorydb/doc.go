/*
Package inmemorydb provides an implementation of github.com/alexandre-normand/welcomebot/store's GlobalSiloStringStorer
interface as an in-memory data store optionally relying on a wrapping GlobalSiloStringStorer for actual persistence.

The in-memory database is the default storage of the welcome registry and the message counter. It is safe for
concurrent use: every read sees complete values and puts/deletes are serialized. Read-modify-write sequences
still need to be serialized by the caller (see the keylock package).

When a persistent storer is provided, the whole content is loaded on creation and every put and delete is
written through to it before being applied in memory.

Example code:

	import (
		"github.com/alexandre-normand/welcomebot/store"
		"github.com/alexandre-normand/welcomebot/store/inmemorydb"
	)

	func main() {
		// Create your persistent storer first
		persistentStorer, err := store.NewLevelDB("messageCounts", "~/welcomebot")
		if err != nil {
			log.Fatalf("Opening [%s] db failed: %s", "messageCounts", err.Error())
		}

		// Create the inmemorydb
		countStorer, err := inmemorydb.New(persistentStorer)
		if err != nil {
			log.Fatalf("Opening creating in-memory db wrapper: %s", err.Error())
		}
		defer countStorer.Close()

		...
	}
*/
package inmemorydb
