package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"hoard-go/internal/hoard"

	"github.com/zeebo/blake3"
)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testPost(content, name string) *hoard.Post {
	return hoard.NewPost(hoard.Digest(blake3.Sum256([]byte(content))), "/photos/"+name)
}

// insertTestPost stores a post and tags it, failing the test on error.
func insertTestPost(t *testing.T, db *SQLiteDatabase, content, name string, tags ...string) *hoard.Post {
	t.Helper()

	post := testPost(content, name)
	res, err := db.InsertPost(post)
	if err != nil {
		t.Fatalf("InsertPost() error = %v", err)
	}
	if !res.Inserted {
		t.Fatalf("InsertPost(%s) reported already present", name)
	}
	post.ID = res.ID

	for _, tag := range tags {
		tagID, err := db.GetOrCreateTag(tag)
		if err != nil {
			t.Fatalf("GetOrCreateTag(%q) error = %v", tag, err)
		}
		if _, err := db.InsertTagging(post.ID, tagID); err != nil {
			t.Fatalf("InsertTagging() error = %v", err)
		}
		post.Tags.Add(tag)
	}
	return post
}

func postIDs(posts []*hoard.Post) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSQLiteDatabase_InsertPost(t *testing.T) {
	t.Run("assigns increasing ids starting at 1", func(t *testing.T) {
		db := newTestDB(t)

		first := insertTestPost(t, db, "one", "one.png")
		second := insertTestPost(t, db, "two", "two.png")

		if first.ID != 1 {
			t.Errorf("first ID = %d, want 1", first.ID)
		}
		if second.ID <= first.ID {
			t.Errorf("second ID = %d, want > %d", second.ID, first.ID)
		}
	})

	t.Run("duplicate hash is reported as a value", func(t *testing.T) {
		db := newTestDB(t)
		insertTestPost(t, db, "same", "a.png")

		res, err := db.InsertPost(testPost("same", "b.jpg"))
		if err != nil {
			t.Fatalf("InsertPost() error = %v, want nil", err)
		}
		if !res.AlreadyPresent() {
			t.Error("AlreadyPresent() = false, want true")
		}
		if res.ID != 0 {
			t.Errorf("ID = %d, want 0", res.ID)
		}

		posts, err := db.ListPosts()
		if err != nil {
			t.Fatalf("ListPosts() error = %v", err)
		}
		if len(posts) != 1 {
			t.Errorf("len(ListPosts()) = %d, want 1", len(posts))
		}
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		db := newTestDB(t)
		first := insertTestPost(t, db, "one", "one.png")
		if err := db.RemovePost(first.ID); err != nil {
			t.Fatalf("RemovePost() error = %v", err)
		}

		second := insertTestPost(t, db, "two", "two.png")
		if second.ID == first.ID {
			t.Errorf("ID %d reused", second.ID)
		}
	})
}

func TestSQLiteDatabase_GetPost(t *testing.T) {
	t.Run("by id with tags", func(t *testing.T) {
		db := newTestDB(t)
		want := insertTestPost(t, db, "cat", "cat.png", "cat", "cute")

		got, err := db.GetPostByID(want.ID)
		if err != nil {
			t.Fatalf("GetPostByID() error = %v", err)
		}
		if got.Hash != want.Hash {
			t.Errorf("Hash = %s, want %s", got.Hash, want.Hash)
		}
		if got.Extension != "png" {
			t.Errorf("Extension = %q, want png", got.Extension)
		}
		if got.OriginalName != "cat.png" {
			t.Errorf("OriginalName = %q, want cat.png", got.OriginalName)
		}
		if !got.Tags.Equal(hoard.NewTagSet("cat", "cute")) {
			t.Errorf("Tags = %v, want [cat cute]", got.Tags.Sorted())
		}
	})

	t.Run("by hash", func(t *testing.T) {
		db := newTestDB(t)
		want := insertTestPost(t, db, "dog", "dog.jpg")

		got, err := db.GetPostByHash(want.Hash)
		if err != nil {
			t.Fatalf("GetPostByHash() error = %v", err)
		}
		if got.ID != want.ID {
			t.Errorf("ID = %d, want %d", got.ID, want.ID)
		}
	})

	t.Run("missing extension round-trips as empty", func(t *testing.T) {
		db := newTestDB(t)
		want := insertTestPost(t, db, "bare", "README")

		got, err := db.GetPostByID(want.ID)
		if err != nil {
			t.Fatalf("GetPostByID() error = %v", err)
		}
		if got.Extension != "" {
			t.Errorf("Extension = %q, want empty", got.Extension)
		}
	})

	t.Run("not found", func(t *testing.T) {
		db := newTestDB(t)

		if _, err := db.GetPostByID(42); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("GetPostByID() error = %v, want ErrNotFound", err)
		}
		if _, err := db.GetPostByHash(testPost("x", "x").Hash); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("GetPostByHash() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_Tags(t *testing.T) {
	t.Run("get or create is stable", func(t *testing.T) {
		db := newTestDB(t)

		first, err := db.GetOrCreateTag("cat")
		if err != nil {
			t.Fatalf("GetOrCreateTag() error = %v", err)
		}
		second, err := db.GetOrCreateTag("cat")
		if err != nil {
			t.Fatalf("GetOrCreateTag() error = %v", err)
		}
		if first != second {
			t.Errorf("GetOrCreateTag() ids differ: %d, %d", first, second)
		}

		found, err := db.FindTagID("cat")
		if err != nil {
			t.Fatalf("FindTagID() error = %v", err)
		}
		if found != first {
			t.Errorf("FindTagID() = %d, want %d", found, first)
		}
	})

	t.Run("find missing tag", func(t *testing.T) {
		db := newTestDB(t)

		if _, err := db.FindTagID("nope"); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("FindTagID() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list with counts, unused tags kept", func(t *testing.T) {
		db := newTestDB(t)
		insertTestPost(t, db, "1", "1.png", "cat", "cute")
		insertTestPost(t, db, "2", "2.png", "cat")
		if _, err := db.GetOrCreateTag("unused"); err != nil {
			t.Fatalf("GetOrCreateTag() error = %v", err)
		}

		tags, err := db.ListTags()
		if err != nil {
			t.Fatalf("ListTags() error = %v", err)
		}

		want := map[string]int64{"cat": 2, "cute": 1, "unused": 0}
		if len(tags) != len(want) {
			t.Fatalf("len(ListTags()) = %d, want %d", len(tags), len(want))
		}
		for _, tag := range tags {
			if tag.Posts != want[tag.Name] {
				t.Errorf("tag %s has %d posts, want %d", tag.Name, tag.Posts, want[tag.Name])
			}
		}
		if tags[0].Name != "cat" || tags[2].Name != "unused" {
			t.Errorf("ListTags() not ordered by name: %s, %s, %s", tags[0].Name, tags[1].Name, tags[2].Name)
		}
	})
}

func TestSQLiteDatabase_Taggings(t *testing.T) {
	t.Run("insert and remove are idempotent", func(t *testing.T) {
		db := newTestDB(t)
		post := insertTestPost(t, db, "1", "1.png")
		tagID, err := db.GetOrCreateTag("cat")
		if err != nil {
			t.Fatalf("GetOrCreateTag() error = %v", err)
		}

		inserted, err := db.InsertTagging(post.ID, tagID)
		if err != nil || !inserted {
			t.Fatalf("InsertTagging() = %v, %v, want true, nil", inserted, err)
		}
		inserted, err = db.InsertTagging(post.ID, tagID)
		if err != nil || inserted {
			t.Errorf("second InsertTagging() = %v, %v, want false, nil", inserted, err)
		}

		removed, err := db.RemoveTagging(post.ID, tagID)
		if err != nil || !removed {
			t.Fatalf("RemoveTagging() = %v, %v, want true, nil", removed, err)
		}
		removed, err = db.RemoveTagging(post.ID, tagID)
		if err != nil || removed {
			t.Errorf("second RemoveTagging() = %v, %v, want false, nil", removed, err)
		}
	})

	t.Run("tagging a missing post fails", func(t *testing.T) {
		db := newTestDB(t)
		tagID, err := db.GetOrCreateTag("cat")
		if err != nil {
			t.Fatalf("GetOrCreateTag() error = %v", err)
		}

		if _, err := db.InsertTagging(99, tagID); !errors.Is(err, hoard.ErrStorage) {
			t.Errorf("InsertTagging() error = %v, want ErrStorage", err)
		}
	})
}

func TestSQLiteDatabase_RemovePost(t *testing.T) {
	t.Run("removes post and its taggings", func(t *testing.T) {
		db := newTestDB(t)
		post := insertTestPost(t, db, "1", "1.png", "cat")
		other := insertTestPost(t, db, "2", "2.png", "cat")

		if err := db.RemovePost(post.ID); err != nil {
			t.Fatalf("RemovePost() error = %v", err)
		}

		if _, err := db.GetPostByID(post.ID); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("GetPostByID() after remove error = %v, want ErrNotFound", err)
		}

		got, err := db.Search([]string{"cat"}, nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if !equalIDs(postIDs(got), []int64{other.ID}) {
			t.Errorf("Search(cat) = %v, want [%d]", postIDs(got), other.ID)
		}

		// The tag itself survives.
		if _, err := db.FindTagID("cat"); err != nil {
			t.Errorf("FindTagID(cat) error = %v", err)
		}
	})

	t.Run("missing post", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.RemovePost(7); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("RemovePost() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_RemoveTag(t *testing.T) {
	t.Run("removes tag and all its taggings", func(t *testing.T) {
		db := newTestDB(t)
		a := insertTestPost(t, db, "1", "1.png", "cat", "cute")
		insertTestPost(t, db, "2", "2.png", "cat")

		id, err := db.RemoveTag("cat")
		if err != nil {
			t.Fatalf("RemoveTag() error = %v", err)
		}
		if id == 0 {
			t.Error("RemoveTag() id = 0")
		}

		if _, err := db.FindTagID("cat"); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("FindTagID() error = %v, want ErrNotFound", err)
		}

		got, err := db.GetPostByID(a.ID)
		if err != nil {
			t.Fatalf("GetPostByID() error = %v", err)
		}
		if !got.Tags.Equal(hoard.NewTagSet("cute")) {
			t.Errorf("Tags = %v, want [cute]", got.Tags.Sorted())
		}

		res, err := db.Search([]string{"cat"}, nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(res) != 0 {
			t.Errorf("Search(cat) = %v, want none", postIDs(res))
		}
	})

	t.Run("missing tag", func(t *testing.T) {
		db := newTestDB(t)

		if _, err := db.RemoveTag("nope"); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("RemoveTag() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_Search(t *testing.T) {
	db := newTestDB(t)
	p1 := insertTestPost(t, db, "1", "1.png", "cat", "cute")
	p2 := insertTestPost(t, db, "2", "2.png", "cat")
	p3 := insertTestPost(t, db, "3", "3.png", "dog", "cute")
	insertTestPost(t, db, "4", "4.png")

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []int64
	}{
		{"single include", []string{"cat"}, nil, []int64{p1.ID, p2.ID}},
		{"intersection", []string{"cat", "cute"}, nil, []int64{p1.ID}},
		{"exclusion", []string{"cat"}, []string{"cute"}, []int64{p2.ID}},
		{"exclusion of unknown tag", []string{"cute"}, []string{"bird"}, []int64{p1.ID, p3.ID}},
		{"unknown include", []string{"bird"}, nil, []int64{}},
		{"empty include", nil, nil, []int64{}},
		{"empty include with exclude", nil, []string{"cat"}, []int64{}},
		{"duplicate include counts once", []string{"cat", "cat"}, nil, []int64{p1.ID, p2.ID}},
		{"duplicate include and exclude", []string{"cute", "cute"}, []string{"dog", "dog"}, []int64{p1.ID}},
		{"include and exclude same tag", []string{"cat"}, []string{"cat"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Search(tt.include, tt.exclude)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got == nil {
				t.Fatal("Search() returned nil slice")
			}
			if !equalIDs(postIDs(got), tt.want) {
				t.Errorf("Search(%v, %v) = %v, want %v", tt.include, tt.exclude, postIDs(got), tt.want)
			}
		})
	}

	t.Run("results carry their full tag sets", func(t *testing.T) {
		got, err := db.Search([]string{"dog"}, nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 || !got[0].Tags.Equal(hoard.NewTagSet("dog", "cute")) {
			t.Errorf("Search(dog) = %v", got)
		}
	})
}

func TestSQLiteDatabase_PostTags(t *testing.T) {
	t.Run("only the requested posts", func(t *testing.T) {
		db := newTestDB(t)
		p1 := insertTestPost(t, db, "1", "1.png", "cat", "cute")
		insertTestPost(t, db, "2", "2.png", "dog")

		rows, err := db.queries.ListPostTagNames(context.Background(), []int64{p1.ID})
		if err != nil {
			t.Fatalf("ListPostTagNames() error = %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("ListPostTagNames() = %v, want the 2 taggings of post %d", rows, p1.ID)
		}
		for _, r := range rows {
			if r.PostID != p1.ID {
				t.Errorf("row for post %d, want only %d", r.PostID, p1.ID)
			}
		}

		rows, err = db.queries.ListPostTagNames(context.Background(), nil)
		if err != nil {
			t.Fatalf("ListPostTagNames(nil) error = %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("ListPostTagNames(nil) = %v, want none", rows)
		}
	})

	t.Run("listing spans several batches", func(t *testing.T) {
		db := newTestDB(t)
		n := tagBatchSize + 2
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%d.png", i)
			insertTestPost(t, db, name, name, fmt.Sprintf("tag-%d", i%3))
		}

		posts, err := db.ListPosts()
		if err != nil {
			t.Fatalf("ListPosts() error = %v", err)
		}
		if len(posts) != n {
			t.Fatalf("len(ListPosts()) = %d, want %d", len(posts), n)
		}
		for i, p := range posts {
			want := hoard.NewTagSet(fmt.Sprintf("tag-%d", i%3))
			if !p.Tags.Equal(want) {
				t.Errorf("post %d Tags = %v, want %v", p.ID, p.Tags.Sorted(), want.Sorted())
			}
		}
	})
}

func TestSQLiteDatabase_WithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db := newTestDB(t)

		err := db.WithTx(func(tx hoard.Database) error {
			res, err := tx.InsertPost(testPost("1", "1.png"))
			if err != nil {
				return err
			}
			tagID, err := tx.GetOrCreateTag("cat")
			if err != nil {
				return err
			}
			_, err = tx.InsertTagging(res.ID, tagID)
			return err
		})
		if err != nil {
			t.Fatalf("WithTx() error = %v", err)
		}

		got, err := db.Search([]string{"cat"}, nil)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Search(cat) found %d posts, want 1", len(got))
		}
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := newTestDB(t)
		boom := errors.New("boom")

		err := db.WithTx(func(tx hoard.Database) error {
			if _, err := tx.InsertPost(testPost("1", "1.png")); err != nil {
				return err
			}
			if _, err := tx.GetOrCreateTag("cat"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want boom", err)
		}

		posts, err := db.ListPosts()
		if err != nil {
			t.Fatalf("ListPosts() error = %v", err)
		}
		if len(posts) != 0 {
			t.Errorf("len(ListPosts()) = %d after rollback, want 0", len(posts))
		}
		if _, err := db.FindTagID("cat"); !errors.Is(err, hoard.ErrNotFound) {
			t.Errorf("FindTagID() error = %v after rollback, want ErrNotFound", err)
		}
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		db := newTestDB(t)
		boom := errors.New("boom")

		err := db.WithTx(func(tx hoard.Database) error {
			if err := tx.WithTx(func(inner hoard.Database) error {
				_, err := inner.InsertPost(testPost("1", "1.png"))
				return err
			}); err != nil {
				return err
			}
			// RemovePost opens no transaction of its own here.
			res, err := tx.InsertPost(testPost("2", "2.png"))
			if err != nil {
				return err
			}
			if err := tx.RemovePost(res.ID); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want boom", err)
		}

		posts, err := db.ListPosts()
		if err != nil {
			t.Fatalf("ListPosts() error = %v", err)
		}
		if len(posts) != 0 {
			t.Errorf("len(ListPosts()) = %d after rollback, want 0", len(posts))
		}
	})
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	db := newTestDB(t)

	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() = %v, want nil", err)
	}
	if db.Path() != ":memory:" {
		t.Errorf("Path() = %q, want :memory:", db.Path())
	}
}

func TestSQLiteDatabase_FromDB(t *testing.T) {
	conn, err := OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	if _, err := conn.Exec(Schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	db := NewSQLiteDatabaseFromDB(conn)
	defer db.Close()

	post := insertTestPost(t, db, "x", "x.gif", "anim")
	got, err := db.GetPostByID(post.ID)
	if err != nil {
		t.Fatalf("GetPostByID() error = %v", err)
	}
	if got.FileName() != post.FileName() {
		t.Errorf("FileName() = %s, want %s", got.FileName(), post.FileName())
	}
}
