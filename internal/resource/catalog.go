package resource

import "coaching-site-backend/internal/media"

var (
	imagesOnly     = []media.Constraints{media.Images}
	imagesOrPDF    = []media.Constraints{media.Images, media.Documents}
	pdfOrImages    = []media.Constraints{media.Documents, media.Images}
	unrankedLast   = "rank IS NULL, rank ASC, id ASC"
	newestFirst    = "id DESC"
	titleRules     = "max=200"
	shortTextRules = "max=100"
)

var (
	Banners = &Descriptor{
		Name:  "banner",
		Path:  "banners",
		Table: "banners",
		Fields: []Field{
			{Name: "text", Column: "text", Required: true, Rules: "max=500"},
		},
		File:    &FileSpec{Field: "image", Column: "image_path", URLKey: "imageUrl", Required: true, Accept: imagesOnly},
		OrderBy: newestFirst,
	}

	Courses = &Descriptor{
		Name:  "course",
		Path:  "courses",
		Table: "courses",
		Fields: []Field{
			{Name: "title", Column: "title", Required: true, Rules: titleRules},
			{Name: "description", Column: "description"},
			{Name: "category", Column: "category", Rules: shortTextRules, Filter: true},
			{Name: "duration", Column: "duration", Rules: shortTextRules},
			{Name: "fee", Column: "fee", Kind: Decimal, Rules: "gte=0"},
		},
		File:    &FileSpec{Field: "image", Column: "image_path", URLKey: "imageUrl", Required: true, Accept: imagesOnly},
		OrderBy: newestFirst,
	}

	Testimonials = &Descriptor{
		Name:  "testimonial",
		Path:  "testimonials",
		Table: "testimonials",
		Fields: []Field{
			{Name: "name", Column: "name", Required: true, Rules: titleRules},
			{Name: "message", Column: "message", Required: true, Rules: "max=2000"},
			{Name: "course", Column: "course", Rules: titleRules, Filter: true},
			{Name: "rating", Column: "rating", Kind: Int, Rules: "min=1,max=5"},
		},
		File:    &FileSpec{Field: "photo", Column: "photo_path", URLKey: "photoUrl", Accept: imagesOnly},
		OrderBy: newestFirst,
	}

	Students = &Descriptor{
		Name:  "student",
		Path:  "students",
		Table: "students",
		Fields: []Field{
			{Name: "name", Column: "name", Required: true, Rules: titleRules},
			{Name: "exam", Column: "exam", Required: true, Rules: shortTextRules, Filter: true},
			{Name: "year", Column: "year", Kind: Int, Rules: "min=1900,max=2100", Filter: true},
			{Name: "rank", Column: "rank", Kind: Int, Rules: "min=1"},
			{Name: "score", Column: "score", Rules: shortTextRules},
		},
		File:    &FileSpec{Field: "photo", Column: "photo_path", URLKey: "photoUrl", Required: true, Accept: imagesOnly},
		OrderBy: unrankedLast,
	}

	Announcements = &Descriptor{
		Name:  "announcement",
		Path:  "announcements",
		Table: "announcements",
		Fields: []Field{
			{Name: "title", Column: "title", Required: true, Rules: titleRules},
			{Name: "body", Column: "body", Required: true},
			{Name: "publishedOn", Column: "published_on", Kind: Date},
		},
		File:    &FileSpec{Field: "attachment", Column: "attachment_path", URLKey: "attachmentUrl", Accept: imagesOrPDF},
		OrderBy: newestFirst,
	}

	Timetables = &Descriptor{
		Name:  "timetable",
		Path:  "timetables",
		Table: "timetables",
		Fields: []Field{
			{Name: "title", Column: "title", Required: true, Rules: titleRules},
			{Name: "batch", Column: "batch", Rules: shortTextRules, Filter: true},
		},
		File:    &FileSpec{Field: "file", Column: "file_path", URLKey: "fileUrl", Required: true, Accept: pdfOrImages},
		OrderBy: newestFirst,
	}

	Blogs = &Descriptor{
		Name:  "blog post",
		Path:  "blogs",
		Table: "blog_posts",
		Fields: []Field{
			{Name: "title", Column: "title", Required: true, Rules: titleRules},
			{Name: "content", Column: "content", Required: true},
			{Name: "author", Column: "author", Rules: titleRules},
		},
		File:    &FileSpec{Field: "cover", Column: "cover_path", URLKey: "coverUrl", Accept: imagesOnly},
		OrderBy: newestFirst,
	}

	Documents = &Descriptor{
		Name:  "document",
		Path:  "documents",
		Table: "documents",
		Fields: []Field{
			{Name: "title", Column: "title", Required: true, Rules: titleRules},
			{Name: "category", Column: "category", Rules: shortTextRules, Filter: true},
		},
		File:    &FileSpec{Field: "file", Column: "file_path", URLKey: "fileUrl", Required: true, Accept: pdfOrImages},
		OrderBy: newestFirst,
	}
)

var (
	CurrentBanner = &Descriptor{
		Name:  "current banner",
		Path:  "current-banner",
		Table: "current_banner",
		Fields: []Field{
			{Name: "text", Column: "text", Rules: "max=500"},
		},
		File:      &FileSpec{Field: "image", Column: "image_path", URLKey: "imageUrl", Required: true, Accept: imagesOnly},
		Singleton: true,
	}

	Pricing = &Descriptor{
		Name:  "pricing",
		Path:  "pricing",
		Table: "pricing",
		Fields: []Field{
			{Name: "amount", Column: "amount", Kind: Decimal, Required: true, Rules: "gte=0"},
			{Name: "currency", Column: "currency", Required: true, Rules: "min=3,max=8"},
			{Name: "label", Column: "label", Rules: titleRules},
		},
		Singleton: true,
	}

	SiteTitle = &Descriptor{
		Name:  "site title",
		Path:  "site-title",
		Table: "site_title",
		Fields: []Field{
			{Name: "title", Column: "title", Required: true, Rules: titleRules},
			{Name: "subtitle", Column: "subtitle", Rules: "max=300"},
		},
		Singleton: true,
	}

	Contact = &Descriptor{
		Name:  "admin contact",
		Path:  "contact",
		Table: "admin_contact",
		Fields: []Field{
			{Name: "email", Column: "email", Required: true, Rules: "email"},
			{Name: "phone", Column: "phone", Required: true, Rules: "min=5,max=20"},
			{Name: "address", Column: "address", Rules: "max=500"},
			{Name: "whatsapp", Column: "whatsapp", Rules: "max=20"},
		},
		Singleton: true,
	}
)

// Collections lists the multi-row resources in route order.
func Collections() []*Descriptor {
	return []*Descriptor{Banners, Courses, Testimonials, Students, Announcements, Timetables, Blogs, Documents}
}

func Singletons() []*Descriptor {
	return []*Descriptor{CurrentBanner, Pricing, SiteTitle, Contact}
}
