package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-management-system/pkg/models"
)

func getBooks(c *gin.Context) {
	page, limit := pagination(c)

	query := db.Model(&models.Book{})
	if title := c.Query("title"); title != "" {
		query = query.Where("title LIKE ?", "%"+title+"%")
	}
	if author := c.Query("author"); author != "" {
		query = query.Where("author LIKE ?", "%"+author+"%")
	}

	var books []models.Book
	err := query.Order("title").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&books).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, books)
}

func getBook(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book id"})
		return
	}

	var book models.Book
	if err := db.First(&book, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	c.JSON(http.StatusOK, book)
}

func createBook(c *gin.Context) {
	var request struct {
		Title         string `json:"title" binding:"required,min=3,max=255"`
		Author        string `json:"author" binding:"required,min=3,max=255"`
		ISBN          string `json:"isbn" binding:"required,numeric,min=10,max=13"`
		Quantity      int    `json:"quantity" binding:"required,min=1"`
		ShelfLocation string `json:"shelf_location" binding:"required,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	book := models.Book{
		Title:         request.Title,
		Author:        request.Author,
		ISBN:          request.ISBN,
		Quantity:      request.Quantity,
		ShelfLocation: request.ShelfLocation,
	}
	if err := db.Create(&book).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create book"})
		return
	}

	c.JSON(http.StatusCreated, book)
}

func updateBook(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book id"})
		return
	}

	var request struct {
		Title         string `json:"title" binding:"omitempty,min=3,max=255"`
		Author        string `json:"author" binding:"omitempty,min=3,max=255"`
		ISBN          string `json:"isbn" binding:"omitempty,numeric,min=10,max=13"`
		Quantity      int    `json:"quantity" binding:"omitempty,min=1"`
		ShelfLocation string `json:"shelf_location" binding:"omitempty,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if request.Title != "" {
		updates["title"] = request.Title
	}
	if request.Author != "" {
		updates["author"] = request.Author
	}
	if request.ISBN != "" {
		updates["isbn"] = request.ISBN
	}
	if request.Quantity != 0 {
		updates["quantity"] = request.Quantity
	}
	if request.ShelfLocation != "" {
		updates["shelf_location"] = request.ShelfLocation
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields provided for update"})
		return
	}

	result := db.Model(&models.Book{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	var book models.Book
	if err := db.First(&book, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, book)
}

func replaceBook(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book id"})
		return
	}

	var request struct {
		Title         string `json:"title" binding:"required,min=3,max=255"`
		Author        string `json:"author" binding:"required,min=3,max=255"`
		ISBN          string `json:"isbn" binding:"required,numeric,min=10,max=13"`
		Quantity      int    `json:"quantity" binding:"required,min=1"`
		ShelfLocation string `json:"shelf_location" binding:"required,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result := db.Model(&models.Book{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":          request.Title,
		"author":         request.Author,
		"isbn":           request.ISBN,
		"quantity":       request.Quantity,
		"shelf_location": request.ShelfLocation,
	})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	var book models.Book
	if err := db.First(&book, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, book)
}

func deleteBook(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid book id"})
		return
	}

	result := db.Delete(&models.Book{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}
