package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"otterpoint/internal/application/orchestrators"
	"otterpoint/internal/application/projections"
	domainAudit "otterpoint/internal/domain/audit"
	domainItem "otterpoint/internal/domain/item"
)

// maxUpload bounds an item form including its image.
const maxUpload = 10 << 20

func itemPath(id, rest string) string {
	return "/admin/items/" + url.PathEscape(id) + rest
}

func itemActions(i domainItem.Item) []rowAction {
	return []rowAction{
		{Label: "編輯", URL: itemPath(i.ItemID, "/edit")},
		{Label: "刪除", URL: itemPath(i.ItemID, "/delete")},
	}
}

// handleItems renders the catalog list (GET /admin/items).
func handleItems(w http.ResponseWriter, r *http.Request) {
	q := projections.ItemSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetItems(r.Context(), q, connFrom(r.Context()))
	if err != nil && failed(w, r, classAdmin, "讀取商品列表", err) {
		return
	}
	page := buildList("商品管理", "/admin/items", projections.ItemSpec, view, itemActions).
		withExport("/admin/items/export").
		withNew("/admin/items/new", "新增商品")
	renderTemplate(w, r, "list.html", map[string]any{"List": page})
}

// handleItemsExport downloads the filtered catalog.
func handleItemsExport(w http.ResponseWriter, r *http.Request) {
	q := projections.ItemSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetItems(r.Context(), q, connFrom(r.Context()))
	if err != nil {
		if !failed(w, r, classAdmin, "匯出商品列表", err) {
			http.Redirect(w, r, "/admin/items", http.StatusSeeOther)
		}
		return
	}
	writeExport(w, r, classAdmin, domainAudit.ResourceItem, projections.ItemSpec, view.Filtered)
}

func findItem(r *http.Request, id string) (domainItem.Item, error) {
	items, err := connFrom(r.Context()).ListItems(r.Context())
	if err != nil {
		return domainItem.Item{}, err
	}
	for _, it := range items {
		if it.ItemID == id {
			return it, nil
		}
	}
	return domainItem.Item{}, errNotFound
}

// handleItemForm handles GET (form) and POST (save) for /admin/items/new and
// /admin/items/{id}/edit. A chosen image is uploaded first; its URL replaces
// the stored one.
// PRE: POST bodies are multipart/form-data
// POST: Nothing is saved when the upload fails
func handleItemForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	isNew := id == ""
	action := "新增商品"
	if !isNew {
		action = "更新商品"
	}
	render := func(form domainItem.Item) {
		renderTemplate(w, r, "item_form.html", map[string]any{"Form": form, "IsNew": isNew, "Title": action})
	}

	if r.Method == http.MethodGet {
		form := domainItem.Item{Active: true}
		if !isNew {
			it, err := findItem(r, id)
			if errors.Is(err, errNotFound) {
				redirectWarning(w, r, "/admin/items", err)
				return
			}
			if err != nil {
				if !failed(w, r, classAdmin, "讀取商品", err) {
					http.Redirect(w, r, "/admin/items", http.StatusSeeOther)
				}
				return
			}
			form = it
		}
		render(form)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		redirectWarning(w, r, r.URL.Path, errors.New("上傳檔案過大"))
		return
	}
	points, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("points")), 10, 64)
	form := domainItem.Item{
		ItemID:      id,
		Name:        r.PostFormValue("name"),
		ImageURL:    r.PostFormValue("imageUrl"),
		Points:      points,
		Description: r.PostFormValue("description"),
		Active:      r.PostFormValue("active") != "",
	}
	cn := connFrom(r.Context())
	actor := actorFrom(r, classAdmin)

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		u, err := orchestrators.ExecuteUploadItemImage(r.Context(), orchestrators.UploadItemImageInput{
			Filename: header.Filename,
			File:     file,
			Actor:    actor,
		}, orchestrators.UploadItemImageDeps{Backend: cn, Recording: recording()})
		if err != nil {
			if failed(w, r, classAdmin, "上傳圖片", err) {
				return
			}
			render(form)
			return
		}
		form.ImageURL = u
	}

	err := orchestrators.ExecuteSaveItem(r.Context(), orchestrators.SaveItemInput{Item: form, Actor: actor},
		orchestrators.ItemDeps{Backend: cn, Recording: recording()})
	if err != nil {
		if failed(w, r, classAdmin, action, err) {
			return
		}
		render(form)
		return
	}
	redirect(w, r, "/admin/items", action+"成功")
}

// handleItemDelete confirms (GET) and performs (POST) an item deletion.
func handleItemDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.Method == http.MethodGet {
		it, err := findItem(r, id)
		if err != nil {
			switch {
			case errors.Is(err, errNotFound):
				redirectWarning(w, r, "/admin/items", err)
			case !failed(w, r, classAdmin, "讀取商品", err):
				http.Redirect(w, r, "/admin/items", http.StatusSeeOther)
			}
			return
		}
		renderTemplate(w, r, "confirm.html", map[string]any{
			"Title":  "確定要刪除商品「" + it.Name + "」嗎？",
			"Text":   "刪除後將無法復原。",
			"Action": itemPath(id, "/delete"),
			"Back":   "/admin/items",
		})
		return
	}

	err := orchestrators.ExecuteDeleteItem(r.Context(), orchestrators.DeleteItemInput{
		ItemID:    id,
		Confirmed: confirmed(r),
		Actor:     actorFrom(r, classAdmin),
	}, orchestrators.ItemDeps{Backend: connFrom(r.Context()), Recording: recording()})
	if err != nil {
		if !failed(w, r, classAdmin, "刪除商品", err) {
			http.Redirect(w, r, "/admin/items", http.StatusSeeOther)
		}
		return
	}
	redirect(w, r, "/admin/items", "商品已刪除")
}
